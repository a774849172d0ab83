package clog

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// namespaceKey 命名空间在日志输出中的字段名
const namespaceKey = "namespace"

// logger 基于 slog 的 Logger 实现
type logger struct {
	sl        *slog.Logger
	namespace []string
}

func newLogger(cfg *Config, o *options) (Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(out, hopts)
	} else {
		h = slog.NewTextHandler(out, hopts)
	}

	l := &logger{sl: slog.New(h)}
	if len(o.namespace) > 0 {
		return l.WithNamespace(o.namespace...), nil
	}
	return l, nil
}

func (l *logger) log(level slog.Level, msg string, fields []Field) {
	if len(l.namespace) > 0 {
		fields = append([]Field{slog.String(namespaceKey, strings.Join(l.namespace, "."))}, fields...)
	}
	l.sl.LogAttrs(context.Background(), level, msg, fields...)
}

func (l *logger) Debug(msg string, fields ...Field) { l.log(slog.LevelDebug, msg, fields) }
func (l *logger) Info(msg string, fields ...Field)  { l.log(slog.LevelInfo, msg, fields) }
func (l *logger) Warn(msg string, fields ...Field)  { l.log(slog.LevelWarn, msg, fields) }
func (l *logger) Error(msg string, fields ...Field) { l.log(slog.LevelError, msg, fields) }

func (l *logger) With(fields ...Field) Logger {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return &logger{sl: l.sl.With(args...), namespace: l.namespace}
}

func (l *logger) WithNamespace(parts ...string) Logger {
	ns := make([]string, 0, len(l.namespace)+len(parts))
	ns = append(ns, l.namespace...)
	ns = append(ns, parts...)
	return &logger{sl: l.sl, namespace: ns}
}

// discardLogger 丢弃所有日志
type discardLogger struct{}

func (discardLogger) Debug(string, ...Field) {}
func (discardLogger) Info(string, ...Field)  {}
func (discardLogger) Warn(string, ...Field)  {}
func (discardLogger) Error(string, ...Field) {}

func (d discardLogger) With(...Field) Logger          { return d }
func (d discardLogger) WithNamespace(...string) Logger { return d }
