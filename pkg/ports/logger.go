package ports

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLogLevel is returned by ParseLogLevel for names it does not know.
var ErrUnknownLogLevel = errors.New("ports: unknown log level")

// LogLevel orders log messages by severity. A logger set to one level drops
// every message below it.
type LogLevel int

const (
	// LevelDebug covers per-frame and per-component detail.
	LevelDebug LogLevel = iota
	// LevelInfo covers step lifecycle and playback progress.
	LevelInfo
	// LevelWarn covers problems playback survives, such as a failed rewind.
	LevelWarn
	// LevelError covers failures that end playback or an execution.
	LevelError
	// LevelQuiet drops everything.
	LevelQuiet
)

var logLevelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelQuiet: "quiet",
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelQuiet {
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
	return logLevelNames[l]
}

// ParseLogLevel maps a level name to its LogLevel. Matching ignores case and
// surrounding space, and "warning" is accepted for LevelWarn. The empty string
// means LevelInfo.
func ParseLogLevel(s string) (LogLevel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "":
		return LevelInfo, nil
	case "warning":
		return LevelWarn, nil
	}
	for l, n := range logLevelNames {
		if n == name {
			return LogLevel(l), nil
		}
	}
	return LevelInfo, fmt.Errorf("%w %q", ErrUnknownLogLevel, s)
}

// Logger is the logging port used by every component. msg is a message key
// that implementations translate before formatting it with args.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that tags each message with component.
	WithComponent(component string) Logger
}
