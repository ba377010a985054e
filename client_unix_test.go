package pricemcp

import (
	"context"
	"errors"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// 测试UnixClient与UnixServer的通信
func TestUnixClient_Communication(t *testing.T) {
	// 创建并启动服务器
	_, socketPath := startUnixServer(t, func(s Server) {
		// 注册一个回显处理器
		s.RegisterHandler("echo", func(params map[string]interface{}) (interface{}, error) {
			return params["message"], nil
		})
		// 注册一个返回错误的处理器
		s.RegisterHandler("error", func(params map[string]interface{}) (interface{}, error) {
			return nil, errors.New("test error")
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 创建客户端
	client, err := NewUnixClient(ctx, socketPath)
	if err != nil {
		t.Fatalf("创建客户端失败: %v", err)
	}
	defer client.Close()

	if client.RemoteAddr() == nil {
		t.Error("应该能拿到对端地址")
	}

	// 测试发送请求和接收响应 - 成功情况
	t.Run("成功请求", func(t *testing.T) {
		id, err := client.SendRequest(ctx, "echo", map[string]interface{}{"message": "hello"})
		if err != nil {
			t.Fatalf("发送请求失败: %v", err)
		}

		response, err := client.ReceiveResponse(ctx)
		if err != nil {
			t.Fatalf("接收响应失败: %v", err)
		}

		if response.JsonRPC != "2.0" {
			t.Errorf("响应中的jsonrpc字段错误: 期望 '2.0', 得到 %v", response.JsonRPC)
		}
		if response.ID == nil || *response.ID != id {
			t.Errorf("响应id错误: 期望 %d, 得到 %v", id, response.ID)
		}

		var result string
		if err := jsoniter.Unmarshal(response.Result, &result); err != nil || result != "hello" {
			t.Errorf("响应中的result字段错误: 期望 'hello', 得到 %s", response.Result)
		}
	})

	// 测试发送请求和接收响应 - 错误情况
	t.Run("错误请求", func(t *testing.T) {
		if _, err := client.SendRequest(ctx, "error", map[string]interface{}{}); err != nil {
			t.Fatalf("发送请求失败: %v", err)
		}

		response, err := client.ReceiveResponse(ctx)
		if err != nil {
			t.Fatalf("接收响应失败: %v", err)
		}

		if response.Error == nil {
			t.Fatal("响应中应该包含error字段")
		}
		if response.Error.Message != "Method deal failed: test error" {
			t.Errorf("错误消息错误: 得到 %v", response.Error.Message)
		}
	})

	// 测试方法不存在的情况
	t.Run("方法不存在", func(t *testing.T) {
		if _, err := client.SendRequest(ctx, "non_existent_method", map[string]interface{}{}); err != nil {
			t.Fatalf("发送请求失败: %v", err)
		}

		response, err := client.ReceiveResponse(ctx)
		if err != nil {
			t.Fatalf("接收响应失败: %v", err)
		}

		if response.Error == nil || response.Error.Code != MethodNotFound {
			t.Errorf("错误代码错误: 期望 -32601, 得到 %v", response.Error)
		}
	})
}

// 通过 unix socket 完成握手和工具调用
func TestUnixClient_Session(t *testing.T) {
	_, socketPath := startUnixServer(t, fixtureToolSet().Mount)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	channel, err := Dial(ctx, socketPath)
	if err != nil {
		t.Fatalf("连接失败: %v", err)
	}
	defer channel.Close()

	if channel.Pid() != 0 {
		t.Errorf("socket 连接没有子进程, 得到 pid %d", channel.Pid())
	}

	session, err := Initialize(ctx, channel, SessionConfig{RequestTimeout: time.Second})
	if err != nil {
		t.Fatalf("握手失败: %v", err)
	}
	result, err := session.CallTool(ctx, DefaultToolName, map[string]interface{}{"symbol": "AAA"})
	if err != nil {
		t.Fatalf("调用工具失败: %v", err)
	}
	r, err := Reduce(Extract(result.Content[0]))
	if err != nil || r.Min != 8.2 || r.Max != 12.0 {
		t.Errorf("价格区间错误: %+v, %v", r, err)
	}
}

// 测试连接到不存在的socket
func TestUnixClient_ConnectionError(t *testing.T) {
	// 使用一个不存在的socket路径
	socketPath := "/tmp/non_existent_socket.sock"

	// 尝试创建客户端
	_, err := NewUnixClient(context.Background(), socketPath)

	// 应该返回错误
	if !errors.Is(err, ErrLaunch) {
		t.Errorf("应该返回 ErrLaunch, 得到 %v", err)
	}
}
