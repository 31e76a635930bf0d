package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var InfoLogger, FatalLogger *zap.Logger

var (
	serviceName = "default"
	nop         = zap.NewNop()
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init поднимает production-логгер zap с указанным уровнем.
func Init(level, name string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("logger level %q: %w", level, err)
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	InfoLogger, FatalLogger = l, l
	SetServiceName(name)
	return nil
}

// L: текущий логгер; до Init отдаёт no-op.
func L() *zap.Logger {
	if InfoLogger == nil {
		return nop
	}
	return InfoLogger.With(zap.String("service", serviceName))
}

func With(fields ...zap.Field) *zap.Logger { return L().With(fields...) }

func Sync() {
	if InfoLogger != nil {
		_ = InfoLogger.Sync()
	}
}

func Debug(format string, args ...interface{}) { L().Debug(fmt.Sprintf(format, args...)) }

func Info(format string, args ...interface{}) { L().Info(fmt.Sprintf(format, args...)) }

func Warn(format string, args ...interface{}) { L().Warn(fmt.Sprintf(format, args...)) }

func Error(format string, args ...interface{}) { L().Error(fmt.Sprintf(format, args...)) }

func Fatal(format string, args ...interface{}) {
	if FatalLogger == nil {
		panic("FatalLogger is not initialized")
	}

	msg := fmt.Sprintf(format, args...)
	FatalLogger.With(
		zap.String("service", serviceName),
	).Fatal(msg)
}
