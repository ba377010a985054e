package pricemcp

import (
	"strconv"
	"sync"
)

// ToolHandler 执行一个工具，返回错误时服务端以 isError 结果回复
type ToolHandler func(arguments map[string]interface{}) (*ToolCallResult, error)

// ToolSet 在 Server 上实现 MCP 的握手与工具方法
type ToolSet struct {
	info Implementation
	// PageSize 大于 0 时 tools/list 分页返回
	PageSize int

	mu       sync.RWMutex
	tools    []ToolDescriptor
	handlers map[string]ToolHandler
}

// NewToolSet 创建工具集
func NewToolSet(name, version string) *ToolSet {
	return &ToolSet{
		info:     Implementation{Name: name, Version: version},
		handlers: make(map[string]ToolHandler),
	}
}

// Add 添加工具，同名工具会被替换
func (ts *ToolSet) Add(tool ToolDescriptor, handler ToolHandler) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, exists := ts.handlers[tool.Name]; exists {
		for i := range ts.tools {
			if ts.tools[i].Name == tool.Name {
				ts.tools[i] = tool
			}
		}
	} else {
		ts.tools = append(ts.tools, tool)
	}
	ts.handlers[tool.Name] = handler
}

// Mount 把握手和工具方法注册到服务器上
func (ts *ToolSet) Mount(s Server) {
	s.RegisterHandler(MethodInitialize, ts.initialize)
	s.RegisterHandler(MethodInitialized, func(map[string]interface{}) (interface{}, error) {
		return nil, nil
	})
	s.RegisterHandler(MethodPing, func(map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{}, nil
	})
	s.RegisterHandler(MethodListTools, ts.listTools)
	s.RegisterHandler(MethodCallTool, ts.callTool)
}

func (ts *ToolSet) initialize(params map[string]interface{}) (interface{}, error) {
	version, _ := params["protocolVersion"].(string)
	if version == "" {
		version = DefaultProtocolVersion
	}
	return InitializeResult{
		ProtocolVersion: version,
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		ServerInfo: ts.info,
	}, nil
}

func (ts *ToolSet) listTools(params map[string]interface{}) (interface{}, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if ts.PageSize <= 0 {
		return listToolsResult{Tools: append([]ToolDescriptor{}, ts.tools...)}, nil
	}

	start := 0
	if cursor, _ := params["cursor"].(string); cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 || n > len(ts.tools) {
			return nil, &Error{Code: InvalidParams, Message: "Invalid cursor: " + cursor}
		}
		start = n
	}
	end := start + ts.PageSize
	if end > len(ts.tools) {
		end = len(ts.tools)
	}
	result := listToolsResult{Tools: append([]ToolDescriptor{}, ts.tools[start:end]...)}
	if end < len(ts.tools) {
		result.NextCursor = strconv.Itoa(end)
	}
	return result, nil
}

func (ts *ToolSet) callTool(params map[string]interface{}) (interface{}, error) {
	name, _ := params["name"].(string)
	arguments, _ := params["arguments"].(map[string]interface{})

	ts.mu.RLock()
	handler, exists := ts.handlers[name]
	ts.mu.RUnlock()
	if !exists {
		return nil, &Error{Code: InvalidParams, Message: "Unknown tool: " + name}
	}

	result, err := handler(arguments)
	if err != nil {
		return &ToolCallResult{
			Content: []ContentItem{TextContent(err.Error())},
			IsError: true,
		}, nil
	}
	if result == nil {
		result = &ToolCallResult{}
	}
	if result.Content == nil {
		result.Content = []ContentItem{}
	}
	return result, nil
}
