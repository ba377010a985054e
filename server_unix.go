package pricemcp

import (
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
)

// UnixServer 实现了基于 Unix Domain Socket 的 MCP 服务器，
// 每个连接独立处理，消息格式与 StdioServer 相同
type UnixServer struct {
	socketPath string
	listener   net.Listener
	handlers   *handlerSet
	done       chan struct{}
	stopOnce   sync.Once
}

// NewUnixServer 创建一个新的 Unix Domain Socket MCP 服务器
func NewUnixServer(socketPath string) *UnixServer {
	return &UnixServer{
		socketPath: socketPath,
		handlers:   newHandlerSet(),
		done:       make(chan struct{}),
	}
}

// RegisterHandler 注册一个请求处理程序
func (s *UnixServer) RegisterHandler(method string, handler RequestHandler) {
	s.handlers.register(method, handler)
}

// Start 启动服务器
func (s *UnixServer) Start() error {
	// 确保 socket 文件不存在
	_ = os.Remove(s.socketPath)

	// 创建 Unix Domain Socket
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket: %w", err)
	}
	s.listener = listener

	// 设置 socket 文件权限
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	go Safe(s.acceptConnections)()
	return nil
}

// Stop 停止服务器，可重复调用
func (s *UnixServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			err = s.listener.Close()
		}
	})
	return err
}

// Wait 阻塞直到服务器停止
func (s *UnixServer) Wait() {
	<-s.done
}

func (s *UnixServer) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return // 服务器已关闭，退出
			default:
			}
			if isClosedError(err) {
				return
			}
			continue
		}

		// 启动新的 goroutine 处理连接
		go Safe(func() {
			s.handleConnection(conn)
		})()
	}
}

func (s *UnixServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	if err := s.handlers.serveLines(conn, conn, s.done); err != nil {
		ancli.Warnf("unix server: %v\n", err)
	}
}
