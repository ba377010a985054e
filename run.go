package pricemcp

import (
	"context"
	"io"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
)

// Run 启动配置的服务器，完成握手后逐个处理 symbol。
// 子进程、输出文件和指标在所有返回路径上都会被释放或写出。
func Run(ctx context.Context, cfg *Config, stdout, stderr io.Writer) (summary Summary, err error) {
	if err := cfg.Validate(); err != nil {
		return summary, err
	}
	server, err := cfg.GetServerConfig(cfg.Server)
	if err != nil {
		return summary, err
	}

	metrics := NewMetrics()
	defer func() {
		if werr := metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			ancli.Warnf("failed to write metrics textfile: %v\n", werr)
		}
	}()

	out, err := OpenOutput(cfg.Output, stdout)
	if err != nil {
		return summary, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	channel, err := Open(ctx, *server, stderr)
	if err != nil {
		return summary, err
	}
	defer func() {
		if cerr := channel.Close(); cerr != nil {
			ancli.Warnf("failed to close mcp server: %v\n", cerr)
		}
	}()

	session, err := Initialize(ctx, channel, SessionConfig{
		ProtocolVersion: cfg.ProtocolVersion,
		RequestTimeout:  cfg.RequestTimeout(),
		Metrics:         metrics,
	})
	if err != nil {
		return summary, err
	}

	return NewDriver(session, cfg, out, metrics).Run(ctx)
}
