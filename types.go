package pricemcp

import "strings"

// MCP 方法名
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodPing        = "ping"
	MethodListTools   = "tools/list"
	MethodCallTool    = "tools/call"
)

// ToolDescriptor 服务端在发现阶段提供的工具描述
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
}

// Implementation 客户端或服务端的名称与版本
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult initialize 请求的结果
type InitializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ServerInfo      Implementation         `json:"serverInfo"`
	Instructions    string                 `json:"instructions,omitempty"`
}

type listToolsResult struct {
	Tools      []ToolDescriptor `json:"tools"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// ToolCallRequest 一次工具调用，参数名需要与工具声明的一致
type ToolCallRequest struct {
	Name   string
	Params map[string]interface{}
}

func (r ToolCallRequest) rpcParams() map[string]interface{} {
	arguments := r.Params
	if arguments == nil {
		arguments = map[string]interface{}{}
	}
	return map[string]interface{}{
		"name":      r.Name,
		"arguments": arguments,
	}
}

// ToolCallResult 工具调用结果，Content 保持服务端给出的顺序
type ToolCallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// Text 拼接所有文本内容
func (r *ToolCallResult) Text() string {
	var sb strings.Builder
	for _, item := range r.Content {
		if item.Kind == ContentText {
			sb.WriteString(item.Text)
		}
	}
	return sb.String()
}
