package buddy

import (
	"fmt"
	"log"
	"os"
)

// LogLevel controls the verbosity of the package-level logger.
type LogLevel int

const (
	// LogLevelNone disables all logging.
	LogLevelNone LogLevel = iota
	// LogLevelFatal enables only fatal diagnostics.
	LogLevelFatal
	// LogLevelError enables error and fatal logging.
	LogLevelError
	// LogLevelInfo enables info, error, and fatal logging.
	LogLevelInfo
	// LogLevelDebug enables all logging, including per-chunk tracing.
	LogLevelDebug
)

// currentLogLevel gates every logging call below. It starts at Info to
// match the teacher repo's default; callers that want per-chunk tracing
// during debugging should raise it to LogLevelDebug.
var currentLogLevel = LogLevelInfo

var (
	debugLogger *log.Logger
	infoLogger  *log.Logger
	errorLogger *log.Logger
	fatalLogger *log.Logger
)

func init() {
	debugLogger = log.New(os.Stdout, "[DEBUG] ", log.Ldate|log.Ltime|log.Lshortfile)
	infoLogger = log.New(os.Stdout, "[INFO] ", log.Ldate|log.Ltime|log.Lshortfile)
	errorLogger = log.New(os.Stderr, "[ERROR] ", log.Ldate|log.Ltime|log.Lshortfile)
	fatalLogger = log.New(os.Stderr, "[FATAL] ", log.Ldate|log.Ltime|log.Lshortfile)
}

// SetLogLevel adjusts verbosity for the lifetime of the process.
func SetLogLevel(level LogLevel) {
	currentLogLevel = level
}

// Debug logs per-chunk tracing information.
func Debug(format string, v ...interface{}) {
	if currentLogLevel >= LogLevelDebug {
		debugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Info logs coarse allocator lifecycle events.
func Info(format string, v ...interface{}) {
	if currentLogLevel >= LogLevelInfo {
		infoLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Error logs recoverable failures, such as a System Allocator refusal.
func Error(format string, v ...interface{}) {
	if currentLogLevel >= LogLevelError {
		errorLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Fatal logs an unrecoverable integrity failure before the caller panics.
func Fatal(format string, v ...interface{}) {
	if currentLogLevel >= LogLevelFatal {
		fatalLogger.Output(2, fmt.Sprintf(format, v...))
	}
}
