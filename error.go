package pricemcp

import (
	"errors"
	"fmt"
)

type ErrorCode int

// 参考了Python 的 sdk https://github.com/modelcontextprotocol/python-sdk/blob/08f4e01b8f9ab77417f08738bb5cec26a5ebc94f/src/mcp/types.py#L144
var (
	ParseError     ErrorCode = -32700
	InvalidRequest ErrorCode = -32600
	MethodNotFound ErrorCode = -32601
	InvalidParams  ErrorCode = -32602
	InternalError  ErrorCode = -32603
)

// Error JSON-RPC 错误对象
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// 客户端错误分类，调用方通过 errors.Is 判断
var (
	// ErrLaunch 子进程无法启动
	ErrLaunch = errors.New("launch failed")
	// ErrHandshake initialize 握手失败
	ErrHandshake = errors.New("handshake failed")
	// ErrTransport 通道在请求过程中关闭或超时
	ErrTransport = errors.New("transport failed")
	// ErrProtocol 响应格式错误或 id 不匹配
	ErrProtocol = errors.New("protocol error")
	// ErrToolNotFound 服务端报告工具不存在
	ErrToolNotFound = errors.New("tool not found")
	// ErrToolInvocation 服务端执行工具失败
	ErrToolInvocation = errors.New("tool invocation failed")
	// ErrEmptySeries 价格序列为空，无法求区间
	ErrEmptySeries = errors.New("empty price series")
	// ErrNotInitialized 会话尚未完成握手
	ErrNotInitialized = errors.New("session not initialized")
	// ErrLeapDayAnchor 闰日锚点且策略要求报错
	ErrLeapDayAnchor = errors.New("leap day anchor has no counterpart in previous year")
)
