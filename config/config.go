// Package config 为 jetkit 提供统一的配置加载与变更通知能力，基于 Viper 实现。
//
// 特性：
//   - 多源配置：YAML/JSON 文件、环境变量、.env 文件
//   - 优先级语义（从高到低）：进程环境变量 > .env 文件 > 配置文件 > 默认值
//   - 文件变更通知：监听配置文件变化并向订阅者推送新配置
//
// 基本使用：
//
//	loader, err := config.New(config.WithPaths("./config"))
//	if err != nil {
//	    panic(err)
//	}
//	if err := loader.Load(context.Background()); err != nil {
//	    panic(err)
//	}
//	cfg := loader.Config()
package config

import (
	"context"
	"time"

	"github.com/ceyewan/jetkit/clog"
	"github.com/ceyewan/jetkit/jetstream"
	"github.com/ceyewan/jetkit/transport"
)

// Config jetkit 客户端配置
type Config struct {
	Transport transport.NATSConfig `mapstructure:"transport"`
	JetStream JetStreamConfig      `mapstructure:"jetstream"`
	Log       clog.Config          `mapstructure:"log"`
}

// JetStreamConfig JetStream 上下文配置
type JetStreamConfig struct {
	APIPrefix      string        `mapstructure:"api_prefix"`      // 管理接口前缀 (默认: "$JS.API.")
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 请求超时 (默认: 5s)
	Direct         bool          `mapstructure:"direct"`          // 直连模式
}

// Options 把配置转换成 jetstream 上下文选项
func (c *JetStreamConfig) Options() []jetstream.Option {
	var opts []jetstream.Option
	if c.APIPrefix != "" {
		opts = append(opts, jetstream.WithAPIPrefix(c.APIPrefix))
	}
	if c.RequestTimeout > 0 {
		opts = append(opts, jetstream.WithRequestTimeout(c.RequestTimeout))
	}
	if c.Direct {
		opts = append(opts, jetstream.WithDirectMode())
	}
	return opts
}

// Validate 校验配置
func (c *Config) Validate() error {
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// Loader 配置加载器
type Loader interface {
	// Load 从所有来源加载配置并校验
	Load(ctx context.Context) error

	// Config 返回最近一次成功加载的配置
	Config() *Config

	// OnChange 注册配置变更回调，在配置文件变化并重新加载成功后触发
	OnChange(fn func(*Config))
}
