package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/an1noX/techpinoyv3-sub002/common/logger"
)

// serverLogger is set once runServer has built the logger. Before that,
// messages go to stderr in the same layout.
var serverLogger *logger.Logger

func logWithLevel(level logger.LogLevel, msg string, kv ...interface{}) {
	if serverLogger != nil {
		switch level {
		case logger.ERROR:
			serverLogger.Error(msg, kv...)
		case logger.WARN:
			serverLogger.Warn(msg, kv...)
		case logger.DEBUG:
			serverLogger.Debug(msg, kv...)
		case logger.TRACE:
			serverLogger.Trace(msg, kv...)
		default:
			serverLogger.Info(msg, kv...)
		}
		return
	}

	timestamp := time.Now().Format(time.RFC3339)
	fmt.Fprintf(os.Stderr, "%s [%s] %s%s\n", timestamp, logger.LevelToString(level), msg, formatKeyValues(kv...))
}

func formatKeyValues(kv ...interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprintf("arg%d", i)
		var val interface{} = "<missing>"
		if k, ok := kv[i].(string); ok {
			key = k
		} else {
			val = kv[i]
		}
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(fmt.Sprint(val))
	}
	return b.String()
}

func logInfo(msg string, kv ...interface{}) {
	logWithLevel(logger.INFO, msg, kv...)
}

func logWarn(msg string, kv ...interface{}) {
	logWithLevel(logger.WARN, msg, kv...)
}

func logError(msg string, kv ...interface{}) {
	logWithLevel(logger.ERROR, msg, kv...)
}

func logDebug(msg string, kv ...interface{}) {
	logWithLevel(logger.DEBUG, msg, kv...)
}

// componentLogger adapts the package helpers to the Logger interfaces the
// sub-packages accept, tagging every line with a component name.
type componentLogger struct {
	component string
}

func (c componentLogger) with(kv []interface{}) []interface{} {
	return append([]interface{}{"component", c.component}, kv...)
}

func (c componentLogger) Debug(msg string, kv ...interface{}) { logDebug(msg, c.with(kv)...) }
func (c componentLogger) Info(msg string, kv ...interface{})  { logInfo(msg, c.with(kv)...) }
func (c componentLogger) Warn(msg string, kv ...interface{})  { logWarn(msg, c.with(kv)...) }
func (c componentLogger) Error(msg string, kv ...interface{}) { logError(msg, c.with(kv)...) }

// WarnRateLimited drops repeats of key within interval once the server
// logger is running; before that every warning is printed.
func (c componentLogger) WarnRateLimited(key string, interval time.Duration, msg string, kv ...interface{}) {
	if serverLogger == nil {
		logWarn(msg, c.with(kv)...)
		return
	}
	serverLogger.WarnRateLimited(c.component+":"+key, interval, msg, c.with(kv)...)
}
