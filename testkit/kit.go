// Package testkit 提供 jetkit 测试所需的辅助设施：
// 进程内的脚本化传输（单元测试）与基于 testcontainers 的 NATS 容器（集成测试）。
package testkit

import "github.com/ceyewan/jetkit/clog"

// NewLogger 创建一个测试用的 debug 级别控制台 Logger
func NewLogger() clog.Logger {
	logger, err := clog.New(&clog.Config{Level: "debug", Format: "console", Output: "stderr"})
	if err != nil {
		return clog.Discard()
	}
	return logger
}
