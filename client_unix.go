package pricemcp

import (
	"context"
	"fmt"
	"net"
)

// UnixClient 实现了基于 Unix Domain Socket 的 MCP 客户端，
// 消息格式与 StdioClient 相同
type UnixClient struct {
	*StdioClient
	conn net.Conn
}

// NewUnixClient 创建一个新的 Unix Domain Socket MCP 客户端
func NewUnixClient(ctx context.Context, socketPath string) (*UnixClient, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to socket: %w", ErrLaunch, err)
	}
	return newUnixClient(conn), nil
}

func newUnixClient(conn net.Conn) *UnixClient {
	return &UnixClient{
		StdioClient: NewStdioClient(conn, conn),
		conn:        conn,
	}
}

// RemoteAddr 返回对端地址
func (c *UnixClient) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
