package utils

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sharedLogger *zap.SugaredLogger

// InitLogger builds the shared logger writing to stderr, since stdout may
// be carrying the generated document. An empty level falls back to
// LOG_LEVEL, then info.
func InitLogger(level string) {
	if sharedLogger != nil {
		return
	}

	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		parseLevel(level),
	)

	sharedLogger = zap.New(core, zap.AddCallerSkip(1)).Sugar()
}

func GetLogger() *zap.SugaredLogger {
	if sharedLogger == nil {
		InitLogger("")
	}
	return sharedLogger
}

func SyncLogger() {
	if sharedLogger != nil {
		_ = sharedLogger.Sync()
	}
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		MessageKey:     "M",
		StacktraceKey:  "S",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.0000"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func parseLevel(lvl string) zapcore.Level {
	if lvl == "" {
		return zapcore.InfoLevel
	}
	parsed, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}
