package clog

import (
	"github.com/ceyewan/jetkit/xerrors"
)

// Config 日志配置
type Config struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug/info/warn/error (默认: "info")
	Format string `mapstructure:"format"` // 输出格式: json/console (默认: "console")
	Output string `mapstructure:"output"` // 输出目标: stdout/stderr (默认: "stdout")

	// AddSource 是否记录调用位置
	AddSource bool `mapstructure:"add_source"`
}

// DefaultConfig 返回默认日志配置
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	}
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	c.setDefaults()
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return xerrors.Errorf("clog: invalid level %q", c.Level)
	}
	switch c.Format {
	case "json", "console":
	default:
		return xerrors.Errorf("clog: invalid format %q", c.Format)
	}
	switch c.Output {
	case "stdout", "stderr":
	default:
		return xerrors.Errorf("clog: invalid output %q", c.Output)
	}
	return nil
}
