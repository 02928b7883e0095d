// Package logger provides leveled, optionally colored console logging for
// contract runs. All output is prefixed with [HH:MM:SS] timestamps and
// writes are serialized, so pooled workers never interleave lines.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/contractor/internal/contract"
	"github.com/harrison/contractor/internal/report"
)

// Log level constants for filtering.
const (
	levelTrace = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
)

var levelNames = map[string]int{
	"trace": levelTrace,
	"debug": levelDebug,
	"info":  levelInfo,
	"warn":  levelWarn,
	"error": levelError,
}

// ConsoleLogger logs run progress to a writer. It implements the
// executor.Logger interface and also exposes general leveled logging.
// Color is enabled automatically when the writer is a TTY.
type ConsoleLogger struct {
	writer io.Writer
	level  int
	mutex  sync.Mutex
	color  bool
}

// NewConsoleLogger creates a ConsoleLogger writing to w.
// Valid levels are trace, debug, info, warn, error; empty or unknown
// levels default to info. A nil writer silently discards all output.
func NewConsoleLogger(w io.Writer, logLevel string) *ConsoleLogger {
	level, ok := levelNames[strings.ToLower(logLevel)]
	if !ok {
		level = levelInfo
	}
	return &ConsoleLogger{
		writer: w,
		level:  level,
		color:  isTerminal(w),
	}
}

// isTerminal reports whether w is a TTY that supports colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *ConsoleLogger) printf(level int, format string, args ...interface{}) {
	if l.writer == nil || level < l.level {
		return
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(l.writer, "[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
}

// Debugf logs at debug level.
func (l *ConsoleLogger) Debugf(format string, args ...interface{}) {
	l.printf(levelDebug, format, args...)
}

// Infof logs at info level.
func (l *ConsoleLogger) Infof(format string, args ...interface{}) {
	l.printf(levelInfo, format, args...)
}

// Warnf logs at warn level.
func (l *ConsoleLogger) Warnf(format string, args ...interface{}) {
	l.printf(levelWarn, format, args...)
}

// Errorf logs at error level.
func (l *ConsoleLogger) Errorf(format string, args ...interface{}) {
	l.printf(levelError, format, args...)
}

// LogRunStart logs the start of a run.
func (l *ConsoleLogger) LogRunStart(total int, parallel bool) {
	mode := "sequential"
	if parallel {
		mode = "parallel"
	}
	l.printf(levelInfo, "Running %d operation(s) (%s)", total, mode)
}

// LogOperationStart logs one operation beginning execution.
func (l *ConsoleLogger) LogOperationStart(def contract.Definition) {
	l.printf(levelDebug, "-> %s %s (%s)", def.Method, def.Endpoint, def.ID())
}

// LogResult logs one operation's verdict.
func (l *ConsoleLogger) LogResult(result report.Result) {
	label := l.statusLabel(result)
	line := fmt.Sprintf("%s %s %s %s", label, result.Method, result.Endpoint, result.ID())
	if result.StatusCode != 0 {
		line += fmt.Sprintf(" [%d]", result.StatusCode)
	}
	if result.Retries > 0 {
		line += fmt.Sprintf(" (%d retries)", result.Retries)
	}

	level := levelInfo
	if result.Failed() {
		level = levelWarn
	}
	l.printf(level, "%s", line)

	for _, e := range result.Errors {
		l.printf(levelWarn, "    %s", e)
	}
}

// LogSummary logs the run summary.
func (l *ConsoleLogger) LogSummary(rep *report.Report) {
	l.printf(levelInfo, "")
	l.printf(levelInfo, "Run Summary:")
	l.printf(levelInfo, "  Total: %d", rep.Total)
	l.printf(levelInfo, "  Passed: %d", rep.Passed)
	l.printf(levelInfo, "  Failed: %d", rep.Failed)
	if rep.Skipped > 0 {
		l.printf(levelInfo, "  Skipped: %d", rep.Skipped)
	}
	l.printf(levelInfo, "  Pass rate: %.1f%%", rep.PassRate*100)
	l.printf(levelInfo, "  Duration: %s", rep.Elapsed.Round(time.Millisecond))
}

// statusLabel renders the PASS/FAIL/SKIP marker, colored on TTYs.
func (l *ConsoleLogger) statusLabel(result report.Result) string {
	switch {
	case result.Skipped:
		if l.color {
			return color.YellowString("SKIP")
		}
		return "SKIP"
	case result.Passed:
		if l.color {
			return color.GreenString("PASS")
		}
		return "PASS"
	default:
		if l.color {
			return color.RedString("FAIL")
		}
		return "FAIL"
	}
}
