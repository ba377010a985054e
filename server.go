package pricemcp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// Server 定义了 MCP 服务器的接口
type Server interface {
	// Start 启动服务器
	Start() error
	// Stop 停止服务器
	Stop() error
	// RegisterHandler 注册一个请求处理器，用于处理指定的方法名
	RegisterHandler(method string, handler RequestHandler)
}

// RequestHandler 是处理特定请求方法的函数类型。
// 返回 *Error 时保留其错误码，其它错误按 InternalError 返回。
type RequestHandler func(params map[string]interface{}) (interface{}, error)

// handlerSet stdio 与 unix 服务器共用的方法表
type handlerSet struct {
	mu       sync.RWMutex // 保护 handlers 的并发访问
	handlers map[string]RequestHandler
}

func newHandlerSet() *handlerSet {
	return &handlerSet{handlers: make(map[string]RequestHandler)}
}

func (h *handlerSet) register(method string, handler RequestHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[method] = handler
}

func (h *handlerSet) lookup(method string) (RequestHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handler, exists := h.handlers[method]
	return handler, exists
}

// dispatch 处理一个请求，通知不需要响应时返回 nil
func (h *handlerSet) dispatch(request Request) *Response {
	// 构建基本响应
	response := &Response{
		JsonRPC: "2.0",
		ID:      request.ID,
	}

	// 查找处理器
	handler, exists := h.lookup(request.Method)
	if !exists {
		if request.IsNotification() {
			return nil
		}
		response.Error = &Error{
			Code:    MethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", request.Method),
		}
		return response
	}

	// 调用处理器
	result, err := handler(request.Params)
	if request.IsNotification() {
		return nil
	}
	if err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			response.Error = rpcErr
		} else {
			response.Error = &Error{
				Code:    InternalError,
				Message: fmt.Sprintf("Method deal failed: %s", err.Error()),
			}
		}
		return response
	}

	if result == nil {
		result = map[string]interface{}{}
	}
	raw, err := jsoniter.Marshal(result)
	if err != nil {
		response.Error = &Error{
			Code:    InternalError,
			Message: fmt.Sprintf("Encode Error: %v", err),
		}
		return response
	}
	response.Result = raw
	return response
}

// handleLine 解析一行请求并分发
func (h *handlerSet) handleLine(line []byte) *Response {
	var request Request
	if err := jsoniter.Unmarshal(line, &request); err != nil {
		return &Response{
			JsonRPC: "2.0",
			Error: &Error{
				Code:    ParseError,
				Message: fmt.Sprintf("Parse Error: %v", err),
			},
		}
	}
	if request.Method == "" {
		return &Response{
			JsonRPC: "2.0",
			ID:      request.ID,
			Error: &Error{
				Code:    InvalidRequest,
				Message: "Invalid Request: method not specified",
			},
		}
	}
	return h.dispatch(request)
}

// serveLines 逐行读取请求并写回响应，直到输入结束或 done 关闭
func (h *handlerSet) serveLines(reader io.Reader, writer io.Writer, done <-chan struct{}) error {
	br := bufio.NewReader(reader)
	for {
		select {
		case <-done:
			return nil
		default:
		}

		line, err := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if response := h.handleLine(line); response != nil {
				data, merr := jsoniter.Marshal(response)
				if merr != nil {
					return fmt.Errorf("failed to marshal response: %w", merr)
				}
				if _, werr := writer.Write(append(data, '\n')); werr != nil {
					if isClosedError(werr) {
						return nil
					}
					return fmt.Errorf("failed to write response: %w", werr)
				}
			}
		}
		if err != nil {
			if isClosedError(err) {
				return nil
			}
			return fmt.Errorf("failed to read request: %w", err)
		}
	}
}
