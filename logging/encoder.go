package logging

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// CusTimeEncoder formats timestamps with config.TimeFormat.
func CusTimeEncoder(config Config) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(config.TimeFormat))
	}
}

// GetEncoder returns a zapcore.Encoder based on the config format.
// Files always get JSON lines; the terminal follows config.Format.
func GetEncoder(config Config, terminal bool) zapcore.Encoder {
	encoderConfig := getEncoderConfig(config, terminal)
	if config.Format == "json" || !terminal {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getEncoderConfig(config Config, terminal bool) zapcore.EncoderConfig {
	encodeLevel := zapcore.LowercaseLevelEncoder
	if terminal && config.Format != "json" {
		encodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    encodeLevel,
		EncodeTime:     CusTimeEncoder(config),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
}

// getZapCores creates the terminal core and, if configured, the file core.
func getZapCores(config Config) []zapcore.Core {
	level := config.TransportLevel()
	cores := make([]zapcore.Core, 0, 2)

	if config.File == "" || !config.Quiet {
		cores = append(cores, zapcore.NewCore(GetEncoder(config, true), terminalSyncer(), level))
	}
	if config.File != "" {
		cores = append(cores, zapcore.NewCore(GetEncoder(config, false), fileSyncer(config), level))
	}
	return cores
}
