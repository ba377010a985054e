package pricemcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// closeGracePeriod 关闭 stdin 后等待子进程自行退出的时间
const closeGracePeriod = 2 * time.Second

// Channel 是绑定到子进程（或 unix socket）的客户端。
// 会话只在 Channel 存活期间有效，调用方应 defer Close。
type Channel struct {
	Client

	cmd       *exec.Cmd
	exited    chan struct{}
	waitErr   error
	closeOnce sync.Once
	closeErr  error
}

// Open 按配置启动 MCP 服务器进程，并把它的标准输入输出接到客户端上。
// 配置了 Socket 时改为连接已运行的服务器。
func Open(ctx context.Context, cfg ServerConfig, stderr io.Writer) (*Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	if cfg.Socket != "" {
		return Dial(ctx, cfg.Socket)
	}

	cmd, err := cfg.BuildCommand()
	if err != nil {
		return nil, err
	}

	// 使用 os.Pipe 而不是 StdoutPipe，Wait 不会在读取过程中关闭管道
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: create stdin pipe: %w", ErrLaunch, err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		closeFiles(stdinR, stdinW)
		return nil, fmt.Errorf("%w: create stdout pipe: %w", ErrLaunch, err)
	}
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		closeFiles(stdinR, stdinW, stdoutR, stdoutW)
		return nil, fmt.Errorf("%w: %s: %w", ErrLaunch, cfg.Command, err)
	}
	// 子进程已经继承了这两端
	closeFiles(stdinR, stdoutW)

	ch := &Channel{
		Client: NewStdioClient(stdoutR, stdinW),
		cmd:    cmd,
		exited: make(chan struct{}),
	}
	go func() {
		ch.waitErr = cmd.Wait()
		close(ch.exited)
	}()

	return ch, nil
}

// Dial 连接到监听 unix socket 的 MCP 服务器
func Dial(ctx context.Context, socketPath string) (*Channel, error) {
	client, err := NewUnixClient(ctx, socketPath)
	if err != nil {
		return nil, err
	}
	return &Channel{Client: client}, nil
}

// Close 关闭连接并结束子进程。
// 先关闭 stdin 让服务器自行退出，超过 closeGracePeriod 后强制 kill。
// 服务器自行退出但退出码非 0 时返回该错误。
// 可重复调用，子进程已退出时也是安全的。
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.Client.Close()
		if c.cmd == nil {
			return
		}

		timer := time.NewTimer(closeGracePeriod)
		defer timer.Stop()
		select {
		case <-c.exited:
			if c.waitErr != nil && c.closeErr == nil {
				c.closeErr = fmt.Errorf("mcp server %s exited: %w", c.cmd.Path, c.waitErr)
			}
		case <-timer.C:
			_ = c.cmd.Process.Kill()
			<-c.exited
		}
	})
	return c.closeErr
}

// Exited 子进程退出后关闭；socket 连接返回 nil
func (c *Channel) Exited() <-chan struct{} {
	return c.exited
}

// Pid 子进程 pid，socket 连接返回 0
func (c *Channel) Pid() int {
	if c.cmd == nil || c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
