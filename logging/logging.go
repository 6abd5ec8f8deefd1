// Package logging provides structured logging with zap.
package logging

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const loggerKey contextKey = "logger"

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // stdout, stderr, or file path
}

// New builds a logger from cfg. An unknown level falls back to info.
func New(cfg Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var config zap.Config
	if cfg.Format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)
	if cfg.OutputPath != "" {
		config.OutputPaths = []string{cfg.OutputPath}
	}

	return config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request-scoped logger, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// Middleware logs one line per request and stores a logger tagged with the
// request id in the request context. It expects echo's RequestID middleware
// to run first.
func Middleware(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = req.Header.Get(echo.HeaderXRequestID)
			}
			reqLogger := logger.With(zap.String("request_id", requestID))
			c.SetRequest(req.WithContext(NewContext(req.Context(), reqLogger)))

			reqLogger.Debug("request started",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("remote_addr", c.RealIP()),
			)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("route", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Int64("size", c.Response().Size),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			if c.Response().Status >= 500 {
				reqLogger.Warn("request completed", fields...)
			} else {
				reqLogger.Info("request completed", fields...)
			}
			return nil
		}
	}
}
