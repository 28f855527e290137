package v2

import (
	"fmt"

	"github.com/mark3labs/mcp-go/util"
)

// ToUtilLogger adapts Logger to util.Logger, the interface mcp-go's
// transports log through.
func ToUtilLogger(l Logger) util.Logger {
	return &utilLoggerAdapter{logger: l}
}

type utilLoggerAdapter struct {
	logger Logger
}

func (a *utilLoggerAdapter) Infof(format string, v ...any) {
	a.logger.Info(fmt.Sprintf(format, v...))
}

func (a *utilLoggerAdapter) Errorf(format string, v ...any) {
	a.logger.Error(fmt.Sprintf(format, v...), nil)
}
