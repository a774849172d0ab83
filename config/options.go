package config

import "github.com/ceyewan/jetkit/clog"

// Option 函数式选项
type Option func(*options)

type options struct {
	name      string
	fileType  string
	paths     []string
	envPrefix string
	logger    clog.Logger
}

func defaultOptions() *options {
	return &options{
		name:      "jetkit",
		fileType:  "yaml",
		paths:     []string{"."},
		envPrefix: "JETKIT",
		logger:    clog.Discard(),
	}
}

// WithName 设置配置文件名（不含扩展名，默认 "jetkit"）
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithFileType 设置配置文件类型（默认 "yaml"）
func WithFileType(t string) Option {
	return func(o *options) {
		if t != "" {
			o.fileType = t
		}
	}
}

// WithPaths 设置配置文件搜索路径（默认当前目录）
func WithPaths(paths ...string) Option {
	return func(o *options) {
		if len(paths) > 0 {
			o.paths = paths
		}
	}
}

// WithEnvPrefix 设置环境变量前缀（默认 "JETKIT"）
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.envPrefix = prefix
		}
	}
}

// WithLogger 注入日志组件
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
