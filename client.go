package pricemcp

import (
	"context"
	"encoding/json"
)

// Client 定义了 MCP 客户端的接口
type Client interface {
	// SendRequest 发送 MCP 请求，返回本次请求的 id
	SendRequest(ctx context.Context, method string, params map[string]interface{}) (int, error)
	// SendNotification 发送不需要响应的通知
	SendNotification(ctx context.Context, method string, params map[string]interface{}) error
	// ReceiveResponse 接收下一条来自服务端的消息
	ReceiveResponse(ctx context.Context) (*Response, error)
	// Close 关闭客户端连接
	Close() error
}

// Request 定义了 MCP 请求结构体，ID 为空时表示通知
type Request struct {
	JsonRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
	ID      *int                   `json:"id,omitempty"`
}

// IsNotification 请求没有 id 时不需要响应
func (r Request) IsNotification() bool {
	return r.ID == nil
}

// Response mcp 消息结构体。
// 服务端主动发送的通知只带 Method，不带 ID。
type Response struct {
	JsonRPC string          `json:"jsonrpc"`
	ID      *int            `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsNotification 判断是否为服务端通知
func (r *Response) IsNotification() bool {
	return r.ID == nil && r.Method != ""
}

func intPtr(v int) *int {
	return &v
}
