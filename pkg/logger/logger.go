package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	sugar = zap.NewNop().Sugar()
)

// Init builds the process logger (called once from main).
func Init(level, format string) error {
	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	Replace(base.Sugar())
	return nil
}

// Replace swaps the package logger, mostly for tests.
func Replace(l *zap.SugaredLogger) {
	mu.Lock()
	sugar = l
	mu.Unlock()
}

// L returns the current logger without the helper caller skip.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar.WithOptions(zap.AddCallerSkip(-1))
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Sync() {
	_ = get().Sync()
}

func Infof(format string, v ...any) {
	get().Infof(format, v...)
}

func Warnf(format string, v ...any) {
	get().Warnf(format, v...)
}

func Errorf(format string, v ...any) {
	get().Errorf(format, v...)
}

func Debugf(format string, v ...any) {
	get().Debugf(format, v...)
}

func Fatalf(format string, v ...any) {
	get().Fatalf(format, v...)
}
