package logger

import (
	"io"

	"github.com/user/videostream/pkg/ports"
)

// NewNoop returns a console logger that drops every message. It is used for
// --quiet and in tests that do not inspect log output.
func NewNoop() *ConsoleLogger {
	return NewConsoleWriter(ports.LevelQuiet, io.Discard, io.Discard)
}
