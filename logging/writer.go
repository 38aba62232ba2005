package logging

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// terminalOutput is where console logs go; stdout is reserved for the batch report.
var terminalOutput io.Writer = os.Stderr

// SetTerminalOutput redirects console logs for loggers created afterwards.
func SetTerminalOutput(w io.Writer) {
	terminalOutput = w
}

func terminalSyncer() zapcore.WriteSyncer {
	return zapcore.Lock(zapcore.AddSync(terminalOutput))
}

// writerRegistry tracks file writers so they can be closed on exit.
var (
	writerRegistry   []*lumberjack.Logger
	writerRegistryMu sync.Mutex
)

// fileSyncer returns a rotating file sink for config.File.
func fileSyncer(config Config) zapcore.WriteSyncer {
	writer := &lumberjack.Logger{
		Filename:   config.File,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
		LocalTime:  true,
	}

	writerRegistryMu.Lock()
	writerRegistry = append(writerRegistry, writer)
	writerRegistryMu.Unlock()

	return zapcore.AddSync(writer)
}

// CloseAllWriters closes all file writers opened by NewLogger.
func CloseAllWriters() error {
	writerRegistryMu.Lock()
	defer writerRegistryMu.Unlock()

	var lastErr error
	for _, w := range writerRegistry {
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	writerRegistry = nil
	return lastErr
}
