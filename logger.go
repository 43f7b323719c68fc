package hoyokit

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// Logger receives request/response lines from the pipeline. The zero default
// is silent.
type Logger interface {
	Logf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Logf(string, ...any) {}

// ColorLogger is a small leveled logger for command-line consumers.
type ColorLogger struct {
	useColor bool
}

// NewColorLogger returns a logger that writes timestamped, optionally
// colorized lines to stdout.
func NewColorLogger(useColor bool) *ColorLogger {
	return &ColorLogger{useColor: useColor}
}

var levelColors = map[string]func(a ...any) string{
	"info":  color.New(color.FgBlue).SprintFunc(),
	"http":  color.New(color.FgMagenta).SprintFunc(),
	"warn":  color.New(color.FgYellow).SprintFunc(),
	"error": color.New(color.FgRed).SprintFunc(),
}

func (l *ColorLogger) log(level, message string) {
	timestamp := time.Now().Format("03:04:05 PM - 01/02/2006")
	if l.useColor {
		colorFunc, ok := levelColors[level]
		if !ok {
			colorFunc = color.New(color.Reset).SprintFunc()
		}
		fmt.Printf("%s: %s\n", colorFunc(timestamp), colorFunc(message))
		return
	}
	fmt.Printf("[%s]: %s\n", timestamp, message)
}

// Logf satisfies Logger; pipeline lines are logged at the http level.
func (l *ColorLogger) Logf(format string, args ...any) {
	l.log("http", fmt.Sprintf(format, args...))
}

func (l *ColorLogger) Info(message string)  { l.log("info", message) }
func (l *ColorLogger) Warn(message string)  { l.log("warn", message) }
func (l *ColorLogger) Error(message string) { l.log("error", message) }
