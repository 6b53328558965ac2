package logger

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string
	Environment string
	ServiceName string
}

var log = zap.NewNop()

// InitLogger builds the process logger: JSON in production, colored console
// output otherwise. It also replaces zap's globals.
func InitLogger(config *LogConfig) error {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	built, err := zapConfig(config.Environment, level).Build(zap.Fields(
		zap.String("service", config.ServiceName),
		zap.String("environment", config.Environment),
	))
	if err != nil {
		return err
	}

	log = built
	zap.ReplaceGlobals(log)
	return nil
}

func zapConfig(environment string, level zapcore.Level) zap.Config {
	if environment == "production" {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}

// GetLogger returns the process logger. It is a no-op logger until InitLogger succeeds.
func GetLogger() *zap.Logger {
	return log
}

// Middleware attaches a request-scoped logger to the echo and request
// contexts and writes one access log line per request.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = c.Response().Header().Get(RequestIDHeader)
			}

			reqLogger := log.With(zap.String("request_id", requestID))
			SetEcho(c, reqLogger)
			c.SetRequest(c.Request().WithContext(WithContext(c.Request().Context(), reqLogger)))

			err := next(c)
			if err != nil {
				// let echo write the response so the logged status is the real one
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.Int64("bytes_out", c.Response().Size),
				zap.String("ip", c.RealIP()),
			}
			switch {
			case status >= http.StatusInternalServerError:
				reqLogger.Error("HTTP Request", append(fields, zap.Error(err))...)
			case status >= http.StatusBadRequest:
				reqLogger.Warn("HTTP Request", fields...)
			default:
				reqLogger.Info("HTTP Request", fields...)
			}
			return nil
		}
	}
}
