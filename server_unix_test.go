package pricemcp

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// tempSocketPath 返回一个足够短的 socket 路径，t.TempDir 在部分系统上超过 sun_path 长度限制
func tempSocketPath(t *testing.T) string {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "pricemcp")
	if err != nil {
		t.Fatalf("创建临时目录失败: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tempDir) })
	return filepath.Join(tempDir, "test.sock")
}

func startUnixServer(t *testing.T, register func(s Server)) (*UnixServer, string) {
	t.Helper()
	socketPath := tempSocketPath(t)
	server := NewUnixServer(socketPath)
	register(server)
	if err := server.Start(); err != nil {
		t.Fatalf("启动服务器失败: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })
	return server, socketPath
}

// 测试服务器启动后 socket 文件的权限
func TestUnixServer_Start(t *testing.T) {
	_, socketPath := startUnixServer(t, func(Server) {})

	info, err := os.Stat(socketPath)
	if err != nil {
		t.Fatalf("socket文件应该存在: %v", err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		t.Errorf("期望socket文件, 得到 %v", info.Mode())
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("socket文件权限错误: 期望 0600, 得到 %o", perm)
	}
}

// 启动时覆盖残留的 socket 文件
func TestUnixServer_StaleSocket(t *testing.T) {
	socketPath := tempSocketPath(t)
	if err := os.WriteFile(socketPath, []byte("stale"), 0600); err != nil {
		t.Fatalf("写入残留文件失败: %v", err)
	}

	server := NewUnixServer(socketPath)
	if err := server.Start(); err != nil {
		t.Fatalf("启动服务器失败: %v", err)
	}
	defer server.Stop()
}

// 测试停止服务器
func TestUnixServer_Stop(t *testing.T) {
	server, socketPath := startUnixServer(t, func(Server) {})

	if err := server.Stop(); err != nil {
		t.Errorf("停止服务器出错: %v", err)
	}
	// 重复停止
	if err := server.Stop(); err != nil {
		t.Errorf("重复停止服务器出错: %v", err)
	}

	done := make(chan struct{})
	go func() {
		server.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop 之后 Wait 应该返回")
	}

	if conn, err := net.Dial("unix", socketPath); err == nil {
		conn.Close()
		t.Error("服务器停止后不应该再接受连接")
	}
}

// 测试请求处理
func TestUnixServer_HandleRequest(t *testing.T) {
	_, socketPath := startUnixServer(t, func(s Server) {
		s.RegisterHandler("echo", func(params map[string]interface{}) (interface{}, error) {
			return params["message"], nil
		})
	})

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("连接服务器失败: %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	response := exchange(t, conn, reader, `{"jsonrpc":"2.0","id":1,"method":"echo","params":{"message":"hello"}}`)
	if response["result"] != "hello" {
		t.Errorf("响应中的result字段错误: 期望 'hello', 得到 %v", response["result"])
	}

	response = exchange(t, conn, reader, `{"jsonrpc":"2.0","id":2,"method":"missing"}`)
	if code := errorCode(t, response); code != float64(MethodNotFound) {
		t.Errorf("错误代码错误: 期望 -32601, 得到 %v", code)
	}
}

// 测试多个连接并发请求
func TestUnixServer_MultipleConnections(t *testing.T) {
	_, socketPath := startUnixServer(t, func(s Server) {
		s.RegisterHandler("echo", func(params map[string]interface{}) (interface{}, error) {
			return params["message"], nil
		})
	})

	const clients = 5
	var wg sync.WaitGroup
	errs := make(chan string, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			conn, err := net.Dial("unix", socketPath)
			if err != nil {
				errs <- err.Error()
				return
			}
			defer conn.Close()

			message := string(rune('a' + n))
			line := `{"jsonrpc":"2.0","id":1,"method":"echo","params":{"message":"` + message + `"}}` + "\n"
			if _, err := conn.Write([]byte(line)); err != nil {
				errs <- err.Error()
				return
			}
			data, err := bufio.NewReader(conn).ReadString('\n')
			if err != nil {
				errs <- err.Error()
				return
			}
			if want := `"result":"` + message + `"`; !strings.Contains(data, want) {
				errs <- "unexpected response: " + data
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
}
