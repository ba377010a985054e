package pricemcp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// StdioClient 实现了基于标准输入输出的 MCP 客户端。
// 每行一个 JSON 消息，任何 io.ReadCloser/io.WriteCloser 对都可以使用。
type StdioClient struct {
	reader     io.ReadCloser
	writer     io.WriteCloser
	mutex      sync.Mutex
	nextID     int
	responseCh chan *Response
	failed     chan struct{}
	err        error
	done       chan struct{}
	closeOnce  sync.Once
}

// NewStdioClient 创建一个新的标准输入输出 MCP 客户端
func NewStdioClient(reader io.ReadCloser, writer io.WriteCloser) *StdioClient {
	client := &StdioClient{
		reader:     reader,
		writer:     writer,
		responseCh: make(chan *Response),
		failed:     make(chan struct{}),
		done:       make(chan struct{}),
	}

	// 启动一个 goroutine 来读取响应
	go Safe(client.readResponses)()

	return client
}

// Close 关闭客户端连接，可重复调用
func (c *StdioClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if werr := c.writer.Close(); werr != nil && !isClosedError(werr) {
			err = werr
		}
		if rerr := c.reader.Close(); rerr != nil && !isClosedError(rerr) && err == nil {
			err = rerr
		}
	})
	return err
}

// SendRequest 发送 MCP 请求，id 单调递增
func (c *StdioClient) SendRequest(ctx context.Context, method string, params map[string]interface{}) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.nextID++
	id := c.nextID
	request := Request{
		JsonRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      intPtr(id),
	}
	if err := c.write(ctx, request); err != nil {
		return 0, err
	}
	return id, nil
}

// SendNotification 发送通知
func (c *StdioClient) SendNotification(ctx context.Context, method string, params map[string]interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.write(ctx, Request{
		JsonRPC: "2.0",
		Method:  method,
		Params:  params,
	})
}

func (c *StdioClient) write(ctx context.Context, request Request) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	select {
	case <-c.done:
		return fmt.Errorf("%w: client closed", ErrTransport)
	default:
	}

	data, err := jsoniter.Marshal(request)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrProtocol, err)
	}
	if _, err := c.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("%w: failed to write request: %w", ErrTransport, err)
	}
	return nil
}

// ReceiveResponse 接收下一条消息，阻塞直到收到消息、连接失败或 ctx 结束
func (c *StdioClient) ReceiveResponse(ctx context.Context) (*Response, error) {
	select {
	case response := <-c.responseCh:
		return response, nil
	case <-c.failed:
		return nil, c.err
	case <-c.done:
		return nil, fmt.Errorf("%w: client closed", ErrTransport)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for response: %w", ErrTransport, ctx.Err())
	}
}

// readResponses 持续读取响应，直到 EOF 或解析失败
func (c *StdioClient) readResponses() {
	reader := bufio.NewReader(c.reader)
	for {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			response := &Response{}
			if uerr := jsoniter.Unmarshal(line, response); uerr != nil {
				c.fail(fmt.Errorf("%w: failed to unmarshal response: %v", ErrProtocol, uerr))
				return
			}
			select {
			case c.responseCh <- response:
			case <-c.done:
				return
			}
		}
		if err != nil {
			if err == io.EOF || isClosedError(err) {
				c.fail(fmt.Errorf("%w: connection closed", ErrTransport))
			} else {
				c.fail(fmt.Errorf("%w: failed to read response: %w", ErrTransport, err))
			}
			return
		}
	}
}

func (c *StdioClient) fail(err error) {
	c.err = err
	close(c.failed)
}
