package transport

import "github.com/ceyewan/jetkit/clog"

// Option 函数式选项
type Option func(*options)

type options struct {
	logger clog.Logger
}

func defaultOptions() *options {
	return &options{logger: clog.Discard()}
}

// WithLogger 注入日志组件
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
