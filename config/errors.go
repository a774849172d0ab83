package config

import "github.com/ceyewan/jetkit/xerrors"

// Sentinel Errors - 配置组件专用的哨兵错误
var (
	// ErrNotLoaded 尚未成功加载过配置
	ErrNotLoaded = xerrors.New("config: not loaded")

	// ErrReadFailed 配置文件读取失败
	ErrReadFailed = xerrors.New("config: read failed")

	// ErrUnmarshalFailed 配置解析失败
	ErrUnmarshalFailed = xerrors.New("config: unmarshal failed")
)
