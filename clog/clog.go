// Package clog 为 jetkit 提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象接口，不暴露底层实现（slog）
//   - 支持层级命名空间，对于子模块 sub，可使用 logger.WithNamespace("sub")
//   - 零外部依赖（仅依赖 Go 标准库与 jetkit 的 xerrors）
//   - Field 直接映射到 slog.Attr，零内存分配
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("connected", clog.String("url", url))
package clog

// Logger 日志接口，提供结构化日志记录功能
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With 创建一个带有预设字段的子 Logger
	With(fields ...Field) Logger

	// WithNamespace 创建一个扩展命名空间的子 Logger
	WithNamespace(parts ...string) Logger
}

// New 创建一个新的 Logger 实例
//
// config - 日志配置，如果为 nil 会使用默认配置
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return newLogger(config, o)
}

// Discard 返回一个丢弃所有日志的 Logger，用作默认注入值
func Discard() Logger {
	return discardLogger{}
}

// Option 函数式选项
type Option func(*options)

type options struct {
	namespace []string
}

// WithNamespace 设置初始命名空间
func WithNamespace(parts ...string) Option {
	return func(o *options) {
		o.namespace = append(o.namespace, parts...)
	}
}
