package v2

// Config holds configuration for creating a logger instance
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string

	// Format is the output format (text, json)
	Format string

	// Output is "stdout", "stderr", or a file path
	Output string

	// FilePath, when set, duplicates every entry into this file
	// in addition to Output.
	FilePath string
}

// DefaultConfig returns the configuration used when nothing is set.
// Logs go to stderr so they never interleave with command output such as
// `julesmcp tools`.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
		Output: "stderr",
	}
}
