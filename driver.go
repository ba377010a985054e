package pricemcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

// ToolSession 驱动程序使用的会话操作，*Session 实现了它
type ToolSession interface {
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, name string, params map[string]interface{}) (*ToolCallResult, error)
}

// Summary 一次运行的统计
type Summary struct {
	// Emitted 至少输出一行的 symbol 数
	Emitted int
	// Lines 输出的行数
	Lines int
	// NoData 没有可用价格数据而被跳过的 symbol 数
	NoData int
	// Failed 工具报错而被跳过的 symbol 数
	Failed int
}

// Driver 逐个 symbol 调用工具，输出价格区间
type Driver struct {
	session ToolSession
	cfg     *Config
	out     io.Writer
	metrics *Metrics
	now     func() time.Time
}

// NewDriver 创建驱动程序，metrics 可以为 nil
func NewDriver(session ToolSession, cfg *Config, out io.Writer, metrics *Metrics) *Driver {
	return &Driver{
		session: session,
		cfg:     cfg,
		out:     out,
		metrics: metrics,
		now:     time.Now,
	}
}

// Run 列出工具并按配置顺序处理每个 symbol。
// 工具不存在或执行失败只跳过当前 symbol；传输、协议等错误终止运行。
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	tools, err := d.session.ListTools(ctx)
	if err != nil {
		return summary, fmt.Errorf("list tools: %w", err)
	}
	if !hasTool(tools, d.cfg.ToolName) {
		return summary, fmt.Errorf("%w: server does not offer %q (available: %s)", ErrToolNotFound, d.cfg.ToolName, toolNames(tools))
	}
	if misc.Truthy(os.Getenv("DEBUG")) {
		for _, t := range tools {
			ancli.Noticef("available tool %s: %s\n", t.Name, t.Description)
		}
	}

	for _, symbol := range uniqueSymbols(d.cfg.Symbols) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		ranges, err := d.RunSymbol(ctx, symbol)
		if err != nil {
			if errors.Is(err, ErrToolNotFound) || errors.Is(err, ErrToolInvocation) {
				ancli.Warnf("skipping %s: %v\n", symbol, err)
				summary.Failed++
				d.metrics.ObserveSymbol(OutcomeFailed)
				continue
			}
			return summary, fmt.Errorf("%s: %w", symbol, err)
		}

		if len(ranges) == 0 {
			ancli.Warnf("skipping %s: no usable price data in tool result\n", symbol)
			summary.NoData++
			d.metrics.ObserveSymbol(OutcomeNoData)
			continue
		}

		for _, r := range ranges {
			if _, err := io.WriteString(d.out, FormatLine(symbol, r)); err != nil {
				return summary, fmt.Errorf("write result: %w", err)
			}
			summary.Lines++
		}
		summary.Emitted++
		d.metrics.ObserveSymbol(OutcomeEmitted)
	}

	return summary, nil
}

// RunSymbol 调用一次工具，返回每个可用内容项的价格区间
func (d *Driver) RunSymbol(ctx context.Context, symbol string) ([]PriceRange, error) {
	window, err := YearWindow(d.now(), d.cfg.LeapDayPolicy)
	if err != nil {
		return nil, err
	}
	start, end := window.Format(d.cfg.DateFormat)

	params := map[string]interface{}{
		d.cfg.SymbolParamName: symbol,
		d.cfg.StartParamName:  start,
		d.cfg.EndParamName:    end,
	}
	result, err := d.session.CallTool(ctx, d.cfg.ToolName, params)
	if err != nil {
		return nil, err
	}

	var ranges []PriceRange
	for i, item := range result.Content {
		extraction := ExtractItem(item)
		if extraction.Degraded() && misc.Truthy(os.Getenv("DEBUG")) {
			ancli.Noticef("%s: content item %d (%s) unusable: %s\n", symbol, i, item.Kind, extraction.Reason)
		}
		r, err := Reduce(extraction.Series)
		if err != nil {
			continue
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// FormatLine <symbol>\t<min>\t<max>\n
func FormatLine(symbol string, r PriceRange) string {
	return symbol + "\t" + formatPrice(r.Min) + "\t" + formatPrice(r.Max) + "\n"
}

func formatPrice(v float64) string {
	if v == 0 {
		// -0 与 0 输出相同
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func hasTool(tools []ToolDescriptor, name string) bool {
	for _, t := range tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

func toolNames(tools []ToolDescriptor) string {
	if len(tools) == 0 {
		return "none"
	}
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
