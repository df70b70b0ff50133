package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nodereaper/nodereaper/internal/config"
)

// newLogger builds the process logger from the configured level and format.
// The returned flush function should be deferred by the caller.
func newLogger(cfg *config.Config) (logr.Logger, func(), error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return logr.Logger{}, nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if !cfg.EnableJSONLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapLog, err := zapCfg.Build()
	if err != nil {
		return logr.Logger{}, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	flush := func() { _ = zapLog.Sync() }
	return zapr.NewLogger(zapLog), flush, nil
}

// parseLevel maps the config log level to a zap level. "debug" enables the
// analyzer's verbose per-node decisions (logr V(1)).
func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// newServeMux routes the metrics and health probe endpoints.
func newServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
