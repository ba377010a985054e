package pricemcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/debug"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

const (
	ClientName    = "pricemcp"
	ClientVersion = "0.1.0"

	// maxToolPages 防止服务端返回循环的 nextCursor
	maxToolPages = 100
)

// SessionConfig 会话参数，零值可用
type SessionConfig struct {
	ClientInfo      Implementation
	ProtocolVersion string
	// RequestTimeout 每个请求的超时时间，0 表示只受调用方 ctx 控制
	RequestTimeout time.Duration
	Metrics        *Metrics
}

type sessionState int

const (
	stateNew sessionState = iota
	stateReady
	stateBroken
)

// Session 在 Client 之上完成握手，并提供 tools/list 与 tools/call。
// 同一时间只允许一个请求在途，请求按提交顺序得到响应。
type Session struct {
	client Client
	cfg    SessionConfig
	id     string

	mu         sync.Mutex
	state      sessionState
	initResult *InitializeResult
	tools      []ToolDescriptor
}

// NewSession 创建尚未握手的会话
func NewSession(client Client, cfg SessionConfig) *Session {
	if cfg.ClientInfo.Name == "" {
		cfg.ClientInfo = Implementation{Name: ClientName, Version: ClientVersion}
	}
	if cfg.ProtocolVersion == "" {
		cfg.ProtocolVersion = DefaultProtocolVersion
	}
	return &Session{
		client: client,
		cfg:    cfg,
		id:     uuid.New().String(),
	}
}

// Initialize 创建会话并完成握手
func Initialize(ctx context.Context, client Client, cfg SessionConfig) (*Session, error) {
	s := NewSession(client, cfg)
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ID 会话标识，用于日志关联
func (s *Session) ID() string {
	return s.id
}

// ServerInfo 握手成功后返回服务端信息
func (s *Session) ServerInfo() (InitializeResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initResult == nil {
		return InitializeResult{}, false
	}
	return *s.initResult, true
}

// Initialize 发送 initialize 请求并等待确认，成功后发送 initialized 通知。
// 必须在其它操作之前完成，且只能调用一次。
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateNew {
		return fmt.Errorf("%w: session already initialized", ErrHandshake)
	}

	params := map[string]interface{}{
		"protocolVersion": s.cfg.ProtocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo":      s.cfg.ClientInfo,
	}
	raw, err := s.roundTrip(ctx, MethodInitialize, params)
	if err != nil {
		s.state = stateBroken
		return fmt.Errorf("%w: %w", ErrHandshake, err)
	}

	var result InitializeResult
	if err := jsoniter.Unmarshal(raw, &result); err != nil {
		s.state = stateBroken
		return fmt.Errorf("%w: malformed initialize result: %v", ErrHandshake, err)
	}
	if result.ProtocolVersion == "" {
		s.state = stateBroken
		return fmt.Errorf("%w: initialize result has no protocolVersion", ErrHandshake)
	}
	if result.ProtocolVersion != s.cfg.ProtocolVersion {
		ancli.Warnf("session %s: server speaks protocol %s, requested %s\n", s.id, result.ProtocolVersion, s.cfg.ProtocolVersion)
	}

	if err := s.client.SendNotification(ctx, MethodInitialized, nil); err != nil {
		s.state = stateBroken
		return fmt.Errorf("%w: %w", ErrHandshake, err)
	}

	s.initResult = &result
	s.state = stateReady
	if misc.Truthy(os.Getenv("DEBUG")) {
		ancli.Noticef("session %s: initialized with %s %s\n", s.id, result.ServerInfo.Name, result.ServerInfo.Version)
	}
	return nil
}

// ListTools 获取服务端提供的工具，跟随 nextCursor 读取所有分页。
// 第一次成功后结果被缓存，不再刷新。
func (s *Session) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if s.tools != nil {
		return append([]ToolDescriptor(nil), s.tools...), nil
	}

	tools := make([]ToolDescriptor, 0)
	cursor := ""
	for page := 0; ; page++ {
		if page >= maxToolPages {
			return nil, fmt.Errorf("%w: tools/list exceeded %d pages", ErrProtocol, maxToolPages)
		}
		var params map[string]interface{}
		if cursor != "" {
			params = map[string]interface{}{"cursor": cursor}
		}
		raw, err := s.roundTrip(ctx, MethodListTools, params)
		if err != nil {
			var rpcErr *Error
			if errors.As(err, &rpcErr) {
				return nil, fmt.Errorf("%w: tools/list rejected: %w", ErrProtocol, rpcErr)
			}
			return nil, err
		}

		var result listToolsResult
		if err := jsoniter.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("%w: malformed tools/list result: %v", ErrProtocol, err)
		}
		for _, tool := range result.Tools {
			if tool.Name == "" {
				return nil, fmt.Errorf("%w: tools/list returned a tool without a name", ErrProtocol)
			}
		}
		tools = append(tools, result.Tools...)

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	s.tools = tools
	return append([]ToolDescriptor(nil), tools...), nil
}

// CallTool 调用指定工具。
// 服务端报告工具不存在时返回 ErrToolNotFound，执行失败时返回 ErrToolInvocation。
func (s *Session) CallTool(ctx context.Context, name string, params map[string]interface{}) (*ToolCallResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureReady(); err != nil {
		return nil, err
	}

	request := ToolCallRequest{Name: name, Params: params}
	raw, err := s.roundTrip(ctx, MethodCallTool, request.rpcParams())
	if err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			if isUnknownTool(name, rpcErr) {
				return nil, fmt.Errorf("%w: %s: %w", ErrToolNotFound, name, rpcErr)
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrToolInvocation, name, rpcErr)
		}
		return nil, err
	}

	var result ToolCallResult
	if err := jsoniter.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: malformed tools/call result: %v", ErrProtocol, err)
	}
	if result.IsError {
		text := result.Text()
		if strings.HasPrefix(strings.ToLower(text), "unknown tool") {
			return nil, fmt.Errorf("%w: %s: %s", ErrToolNotFound, name, text)
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrToolInvocation, name, text)
	}
	return &result, nil
}

func (s *Session) ensureReady() error {
	switch {
	case s.state == stateReady:
		return nil
	case s.initResult == nil:
		return ErrNotInitialized
	default:
		return fmt.Errorf("%w: session %s is no longer usable", ErrTransport, s.id)
	}
}

// roundTrip 发送请求并等待 id 相同的响应，调用方持有 s.mu
func (s *Session) roundTrip(ctx context.Context, method string, params map[string]interface{}) (result json.RawMessage, err error) {
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		s.cfg.Metrics.ObserveRequest(method, requestStatus(err), time.Since(start))
		if err != nil && !isRPCError(err) {
			s.state = stateBroken
		}
	}()

	if misc.Truthy(os.Getenv("DEBUG_CALL")) {
		ancli.Noticef("session %s: %s params: %v\n", s.id, method, debug.IndentedJsonFmt(params))
	}

	id, err := s.client.SendRequest(ctx, method, params)
	if err != nil {
		return nil, err
	}

	for {
		msg, err := s.client.ReceiveResponse(ctx)
		if err != nil {
			return nil, err
		}
		if msg.ID == nil {
			if msg.Error != nil {
				return nil, fmt.Errorf("%w: server reported error without id: %w", ErrProtocol, msg.Error)
			}
			// 服务端通知，例如日志或进度
			if misc.Truthy(os.Getenv("DEBUG")) {
				ancli.Noticef("session %s: skipping notification %q\n", s.id, msg.Method)
			}
			continue
		}
		if *msg.ID != id {
			return nil, fmt.Errorf("%w: response id %d does not match request id %d", ErrProtocol, *msg.ID, id)
		}
		if msg.Error != nil {
			return nil, msg.Error
		}
		if len(msg.Result) == 0 || string(msg.Result) == "null" {
			return nil, fmt.Errorf("%w: %s response has neither result nor error", ErrProtocol, method)
		}
		return msg.Result, nil
	}
}

func isRPCError(err error) bool {
	var rpcErr *Error
	return errors.As(err, &rpcErr) && !errors.Is(err, ErrProtocol)
}

func requestStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	case errors.Is(err, ErrProtocol):
		return "protocol_error"
	case isRPCError(err):
		return "rpc_error"
	default:
		return "error"
	}
}

func isUnknownTool(name string, rpcErr *Error) bool {
	if rpcErr.Code != InvalidParams && rpcErr.Code != MethodNotFound {
		return false
	}
	msg := strings.ToLower(rpcErr.Message)
	return strings.Contains(msg, "unknown tool") ||
		strings.Contains(msg, "tool not found") ||
		(strings.Contains(msg, "not found") && strings.Contains(msg, strings.ToLower(name)))
}
