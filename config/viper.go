package config

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ceyewan/jetkit/clog"
	"github.com/ceyewan/jetkit/xerrors"
)

// loader 实现 Loader 接口
type loader struct {
	v    *viper.Viper
	opts *options

	mu        sync.RWMutex
	cfg       *Config
	callbacks []func(*Config)
	watching  bool
}

// New 创建一个新的配置加载器
func New(opts ...Option) (Loader, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &loader{v: viper.New(), opts: o}, nil
}

// Load 从所有来源加载配置并校验
func (l *loader) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// 1. 配置 Viper
	l.v.SetConfigName(l.opts.name)
	l.v.SetConfigType(l.opts.fileType)
	for _, path := range l.opts.paths {
		l.v.AddConfigPath(path)
	}

	// 2. 环境变量（最高优先级）
	l.v.SetEnvPrefix(l.opts.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	// 3. .env 文件（在配置文件之前加载）
	l.loadDotEnv()

	// 4. 配置文件（找不到文件不算错误，允许纯环境变量运行）
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return xerrors.WithSentinel(err, ErrReadFailed)
		}
		l.opts.logger.Warn("no configuration file found", clog.String("name", l.opts.name))
	}

	cfg, err := l.unmarshal()
	if err != nil {
		return err
	}
	l.cfg = cfg

	// 5. 启动文件监听（仅当真的读到了配置文件）
	if !l.watching && l.v.ConfigFileUsed() != "" {
		l.v.OnConfigChange(func(e fsnotify.Event) {
			l.reload(e)
		})
		l.v.WatchConfig()
		l.watching = true
	}

	l.opts.logger.Info("configuration loaded",
		clog.String("file", l.v.ConfigFileUsed()),
		clog.String("env_prefix", l.opts.envPrefix))
	return nil
}

// loadDotEnv 尝试从搜索路径加载 .env 文件，缺失时静默跳过
func (l *loader) loadDotEnv() {
	for _, path := range l.opts.paths {
		envPath := filepath.Join(path, ".env")
		if err := godotenv.Load(envPath); err == nil {
			l.opts.logger.Debug("loaded .env file", clog.String("path", envPath))
		}
	}
}

func (l *loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, xerrors.WithSentinel(err, ErrUnmarshalFailed)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// reload 配置文件变化后的热加载。
// 新配置非法时保留旧配置，不向订阅者推送。
func (l *loader) reload(e fsnotify.Event) {
	l.mu.Lock()
	cfg, err := l.unmarshal()
	if err != nil {
		l.mu.Unlock()
		l.opts.logger.Error("reload failed, keeping previous config",
			clog.String("file", e.Name), clog.Error(err))
		return
	}
	l.cfg = cfg
	callbacks := append([]func(*Config){}, l.callbacks...)
	l.mu.Unlock()

	l.opts.logger.Info("configuration reloaded", clog.String("file", e.Name))
	for _, fn := range callbacks {
		fn(cfg)
	}
}

// Config 返回最近一次成功加载的配置
func (l *loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// OnChange 注册配置变更回调
func (l *loader) OnChange(fn func(*Config)) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = append(l.callbacks, fn)
}
