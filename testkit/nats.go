package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	natscontainer "github.com/testcontainers/testcontainers-go/modules/nats"

	"github.com/ceyewan/jetkit/transport"
)

// NewNATSContainerConfig 使用 testcontainers 创建带 JetStream 的 NATS 容器并返回传输配置。
// 生命周期由 t.Cleanup 管理。
func NewNATSContainerConfig(t *testing.T) *transport.NATSConfig {
	ctx := context.Background()

	container, err := natscontainer.Run(ctx, "nats:2.10-alpine", natscontainer.WithArgument("jetstream", ""))
	require.NoError(t, err, "failed to start NATS container")

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "4222")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	return &transport.NATSConfig{
		Name:          "testcontainer-nats",
		URL:           "nats://" + host + ":" + mappedPort.Port(),
		MaxReconnects: 10,
		ReconnectWait: 100 * time.Millisecond,
	}
}

// NewNATSContainerTransport 使用 testcontainers 创建并连接 NATS 传输。
// 生命周期由 t.Cleanup 管理。
func NewNATSContainerTransport(t *testing.T) transport.NATSTransport {
	cfg := NewNATSContainerConfig(t)

	tr, err := transport.NewNATS(cfg, transport.WithLogger(NewLogger()))
	require.NoError(t, err, "failed to create nats transport")

	err = tr.Connect(context.Background())
	require.NoError(t, err, "failed to connect to nats")

	t.Cleanup(func() {
		_ = tr.Close()
	})

	return tr
}
