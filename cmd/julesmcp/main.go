// julesmcp is an MCP server that exposes the Jules API as tools over
// streamable HTTP. Each caller authenticates with its own Jules API key,
// sent as "Authorization: Bearer <key>".
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"julesmcp/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "julesmcp",
		Short: "MCP server for the Jules API",
		Long: `julesmcp exposes Jules sources, sessions and activities as MCP tools.

Every tool call is forwarded to the Jules API with the caller's own API key,
taken from the "Authorization: Bearer <key>" header of the MCP request.

Examples:
  # Serve on the default port 3000 at /sse
  julesmcp serve

  # Serve on another port with JSON logs
  PORT=8080 julesmcp serve --log-format json

  # Print the tool table
  julesmcp tools`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is normal.
			_ = godotenv.Load()
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "log format (text, json)")
	root.PersistentFlags().String("log-output", "stderr", "log output: stdout, stderr or a file path")
	root.PersistentFlags().String("log-file", "", "additional log file")

	config.SetDefaults(v)
	for key, name := range map[string]string{
		"config":     "config",
		"log.level":  "log-level",
		"log.format": "log-format",
		"log.output": "log-output",
		"log.file":   "log-file",
	} {
		_ = v.BindPFlag(key, root.PersistentFlags().Lookup(name))
	}

	serve := newServeCmd(v)
	root.AddCommand(serve)
	root.AddCommand(newToolsCmd())
	root.AddCommand(newVersionCmd())

	// Running the bare binary serves.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
