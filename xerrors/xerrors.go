// Package xerrors 为 jetkit 提供标准化的错误处理工具。
// 这是一个基础包，不依赖 jetkit 的其他组件。
//
// 特性：
//   - 错误链兼容：完全兼容 Go 1.13+ 的 errors.Is、errors.As、errors.Unwrap
//   - 哨兵错误：各组件在自己的 errors.go 中用 New 定义带包前缀的哨兵
//   - 包装语义：Wrap/Wrapf 在保留错误链的同时补充调用方上下文
//
// 基本使用：
//
//	resp, err := t.Request(ctx, subj, body, timeout)
//	if err != nil {
//	    return nil, xerrors.Wrapf(err, "request %s", subj)
//	}
package xerrors

import (
	"errors"
	"fmt"
)

// New 创建一个新的哨兵错误。
// 约定：消息带包前缀，如 "jetstream: timeout"。
func New(msg string) error {
	return errors.New(msg)
}

// Errorf 按格式创建错误，支持 %w 包装。
func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Wrap 用额外的上下文信息包装错误。
// err 为 nil 时返回 nil，保留错误链。
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 用格式化的上下文信息包装错误。
// err 为 nil 时返回 nil，保留错误链。
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// WithSentinel 将哨兵错误挂到 err 的错误链上。
// 返回的错误同时满足 errors.Is(err) 与 errors.Is(sentinel)，
// 用于把底层错误归类到组件的错误分类体系。
func WithSentinel(err error, sentinel error) error {
	if err == nil {
		return nil
	}
	return &sentinelError{err: err, sentinel: sentinel}
}

type sentinelError struct {
	err      error
	sentinel error
}

func (e *sentinelError) Error() string {
	return fmt.Sprintf("%v: %v", e.sentinel, e.err)
}

func (e *sentinelError) Is(target error) bool {
	return errors.Is(e.sentinel, target)
}

func (e *sentinelError) Unwrap() error {
	return e.err
}
