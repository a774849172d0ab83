package transport

import (
	"time"

	"github.com/ceyewan/jetkit/xerrors"
)

// NATSConfig NATS 传输配置
type NATSConfig struct {
	// 基础配置（可选，有默认值）
	Name          string        `mapstructure:"name"`           // 连接名称 (默认: "jetkit")
	ConnectWait   time.Duration `mapstructure:"connect_wait"`   // 连接超时 (默认: 5s)
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"` // 重连间隔 (默认: 2s)
	MaxReconnects int           `mapstructure:"max_reconnects"` // 最大重连次数 (默认: 60，-1 表示无限)
	PingInterval  time.Duration `mapstructure:"ping_interval"`  // 心跳间隔 (默认: 2m)

	// 核心配置
	URL string `mapstructure:"url"` // [必填] 服务地址，如 nats://127.0.0.1:4222

	// 认证（可选）
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
}

// setDefaults 设置默认值
func (c *NATSConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "jetkit"
	}
	if c.ConnectWait == 0 {
		c.ConnectWait = 5 * time.Second
	}
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 2 * time.Second
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 60
	}
	if c.PingInterval == 0 {
		c.PingInterval = 2 * time.Minute
	}
}

// Validate 校验配置
func (c *NATSConfig) Validate() error {
	c.setDefaults()
	if c.URL == "" {
		return xerrors.Wrap(ErrConfig, "url is required")
	}
	return nil
}
