package pricemcp

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// 默认值
const (
	DefaultServerName        = "yahoo-finance"
	DefaultToolName          = "get_stock_price_date_range"
	DefaultSymbolParamName   = "symbol"
	DefaultStartParamName    = "start_date"
	DefaultEndParamName      = "end_date"
	DefaultDateFormat        = "2006-01-02"
	DefaultRequestTimeoutSec = 30
	DefaultProtocolVersion   = "2024-11-05"
)

// Config 表示配置文件的结构。
// mcpServers 与常见的 MCP 客户端配置文件兼容，其余字段控制一次价格区间查询。
type Config struct {
	MCPServers map[string]ServerConfig `json:"mcpServers" yaml:"mcpServers"`
	// Server 选择 MCPServers 中要启动的服务器
	Server  string   `json:"server" yaml:"server"`
	Symbols []string `json:"symbols" yaml:"symbols"`

	ToolName        string `json:"toolName,omitempty" yaml:"toolName,omitempty"`
	SymbolParamName string `json:"symbolParamName,omitempty" yaml:"symbolParamName,omitempty"`
	StartParamName  string `json:"startParamName,omitempty" yaml:"startParamName,omitempty"`
	EndParamName    string `json:"endParamName,omitempty" yaml:"endParamName,omitempty"`
	// DateFormat 为 Go 的时间布局字符串
	DateFormat    string        `json:"dateFormat,omitempty" yaml:"dateFormat,omitempty"`
	LeapDayPolicy LeapDayPolicy `json:"leapDayPolicy,omitempty" yaml:"leapDayPolicy,omitempty"`

	RequestTimeoutSec int    `json:"requestTimeoutSec,omitempty" yaml:"requestTimeoutSec,omitempty"`
	ProtocolVersion   string `json:"protocolVersion,omitempty" yaml:"protocolVersion,omitempty"`

	// Output 为空或 "-" 时写到标准输出
	Output          string `json:"output,omitempty" yaml:"output,omitempty"`
	MetricsTextfile string `json:"metricsTextfile,omitempty" yaml:"metricsTextfile,omitempty"`
}

// ServerConfig 表示单个 MCP 服务器的配置
type ServerConfig struct {
	Command  string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args     []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	EnvFile  string            `json:"envFile,omitempty" yaml:"envFile,omitempty"`
	Socket   string            `json:"socket,omitempty" yaml:"socket,omitempty"`
	Disabled bool              `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// DefaultConfig 启动本地虚拟环境中的 mcp_yahoo_finance
func DefaultConfig() *Config {
	cfg := &Config{
		MCPServers: map[string]ServerConfig{
			DefaultServerName: {
				Command: "./.venv/bin/python",
				Args:    []string{"-m", "mcp_yahoo_finance"},
			},
		},
		Server:  DefaultServerName,
		Symbols: []string{"C2PU.SI"},
	}
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig 从文件加载配置，.yaml/.yml 按 YAML 解析，其余按 JSON 解析
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = jsoniter.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.ApplyDefaults()

	return &config, nil
}

// ApplyDefaults 填充未设置的字段
func (c *Config) ApplyDefaults() {
	if c.Server == "" && len(c.MCPServers) == 1 {
		for name := range c.MCPServers {
			c.Server = name
		}
	}
	if c.ToolName == "" {
		c.ToolName = DefaultToolName
	}
	if c.SymbolParamName == "" {
		c.SymbolParamName = DefaultSymbolParamName
	}
	if c.StartParamName == "" {
		c.StartParamName = DefaultStartParamName
	}
	if c.EndParamName == "" {
		c.EndParamName = DefaultEndParamName
	}
	if c.DateFormat == "" {
		c.DateFormat = DefaultDateFormat
	}
	if c.LeapDayPolicy == "" {
		c.LeapDayPolicy = LeapDayClamp
	}
	if c.RequestTimeoutSec == 0 {
		c.RequestTimeoutSec = DefaultRequestTimeoutSec
	}
	if c.ProtocolVersion == "" {
		c.ProtocolVersion = DefaultProtocolVersion
	}
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	if _, err := c.GetServerConfig(c.Server); err != nil {
		return err
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	for _, s := range c.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("symbols must not be blank")
		}
	}
	if c.ToolName == "" {
		return fmt.Errorf("tool name is required")
	}
	if c.SymbolParamName == "" || c.StartParamName == "" || c.EndParamName == "" {
		return fmt.Errorf("tool parameter names must not be empty")
	}
	if c.DateFormat == "" {
		return fmt.Errorf("date format is required")
	}
	if err := c.LeapDayPolicy.Validate(); err != nil {
		return err
	}
	if c.RequestTimeoutSec < 0 || c.RequestTimeoutSec > 3600 {
		return fmt.Errorf("request timeout must be between 0 and 3600 seconds")
	}
	return nil
}

// RequestTimeout 单次请求的超时时间，0 表示不限制
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// GetServerConfig 获取指定名称的服务器配置
func (c *Config) GetServerConfig(name string) (*ServerConfig, error) {
	config, exists := c.MCPServers[name]
	if !exists {
		return nil, fmt.Errorf("server config not found: %s", name)
	}
	if config.Disabled {
		return nil, fmt.Errorf("server is disabled: %s", name)
	}
	if config.Command == "" && config.Socket == "" {
		return nil, fmt.Errorf("server %s needs a command or a socket", name)
	}
	return &config, nil
}

// BuildServer 构建指定的 MCP 服务器进程，尚未启动
func (c *Config) BuildServer(name string) (*exec.Cmd, error) {
	config, err := c.GetServerConfig(name)
	if err != nil {
		return nil, err
	}
	return config.BuildCommand()
}

// BuildCommand 根据配置构建子进程命令
func (s ServerConfig) BuildCommand() (*exec.Cmd, error) {
	if s.Command == "" {
		return nil, fmt.Errorf("%w: no command configured", ErrLaunch)
	}
	cmd := exec.Command(s.Command, s.Args...)

	env, err := s.environment()
	if err != nil {
		return nil, err
	}
	cmd.Env = env

	return cmd, nil
}

// environment 返回 nil 表示继承父进程的环境变量
func (s ServerConfig) environment() ([]string, error) {
	fileEnv, err := loadEnvFile(s.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
	}
	if len(s.Env) == 0 && len(fileEnv) == 0 {
		return nil, nil
	}

	env := os.Environ()
	env = append(env, sortedEnv(fileEnv)...)
	env = append(env, sortedEnv(s.Env)...)
	return env, nil
}

func sortedEnv(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, m[k]))
	}
	return out
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".pricemcp.json"
	}
	return filepath.Join(homeDir, ".pricemcp.json")
}
