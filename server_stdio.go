package pricemcp

import (
	"io"
	"sync"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
)

// StdioServer 实现了基于标准输入输出的 MCP 服务器
type StdioServer struct {
	reader   io.Reader
	writer   io.Writer
	done     chan struct{}
	stopOnce sync.Once
	handlers *handlerSet
}

// NewStdioServer 创建一个新的标准输入输出 MCP 服务器
func NewStdioServer(reader io.Reader, writer io.Writer) *StdioServer {
	return &StdioServer{
		reader:   reader,
		writer:   writer,
		done:     make(chan struct{}),
		handlers: newHandlerSet(),
	}
}

// Start 启动服务器
func (s *StdioServer) Start() error {
	go Safe(s.handleMessages)()
	return nil
}

// Stop 停止服务器，可重复调用
func (s *StdioServer) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// Wait 等待服务器停止，输入结束时服务器会自行停止
func (s *StdioServer) Wait() {
	<-s.done
}

// RegisterHandler 注册一个方法处理器
func (s *StdioServer) RegisterHandler(method string, handler RequestHandler) {
	s.handlers.register(method, handler)
}

func (s *StdioServer) handleMessages() {
	defer s.Stop()
	if err := s.handlers.serveLines(s.reader, s.writer, s.done); err != nil {
		ancli.Errf("stdio server: %v\n", err)
	}
}
