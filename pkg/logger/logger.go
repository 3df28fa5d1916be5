package logger

import (
	"context"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type key int

const loggerKey key = 0

var defaultLogger = zap.NewNop().Sugar()

// Run builds the application logger with the given level ("debug",
// "info", ...; anything unparseable means info) and makes it the
// fallback for contexts that carry no request-scoped logger.
func Run(logLevel string) *zap.SugaredLogger {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.OutputPaths = []string{"stdout"}
	cfg.DisableStacktrace = true

	zapLogger, err := cfg.Build()
	if err != nil {
		log.Fatalln("logger: can't build zap logger:", err)
	}
	defaultLogger = zapLogger.Sugar()
	return defaultLogger
}

func ToContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// Log returns the request-scoped logger if the context has one,
// otherwise the application logger.
func Log(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(loggerKey).(*zap.SugaredLogger); ok {
		return l
	}
	return defaultLogger
}
