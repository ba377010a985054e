// Package stockdemo 提供一个确定性的演示股价工具，供示例服务器使用
package stockdemo

import (
	"fmt"
	"hash/fnv"
	"math"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/weirwei/pricemcp"
)

const dateLayout = "2006-01-02"

// maxDays 限制一次查询的天数
const maxDays = 5 * 366

// NewToolSet 返回提供 get_stock_price_date_range 的工具集
func NewToolSet() *pricemcp.ToolSet {
	ts := pricemcp.NewToolSet("stock-demo", "0.1.0")
	ts.Add(pricemcp.ToolDescriptor{
		Name:        pricemcp.DefaultToolName,
		Description: "Daily closing prices for a symbol between two dates (inclusive)",
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []string{"symbol", "start_date", "end_date"},
			"properties": map[string]interface{}{
				"symbol":     map[string]interface{}{"type": "string"},
				"start_date": map[string]interface{}{"type": "string", "format": "date"},
				"end_date":   map[string]interface{}{"type": "string", "format": "date"},
			},
		},
	}, PriceRange)
	return ts
}

// PriceRange 生成 [start_date, end_date] 内每个工作日的收盘价，
// 结果以 {"YYYY-MM-DD": price} 的 JSON 文本返回
func PriceRange(args map[string]interface{}) (*pricemcp.ToolCallResult, error) {
	symbol, _ := args["symbol"].(string)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	start, err := parseDate(args, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := parseDate(args, "end_date")
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end_date %s is before start_date %s", end.Format(dateLayout), start.Format(dateLayout))
	}
	if end.Sub(start) > maxDays*24*time.Hour {
		return nil, fmt.Errorf("date range longer than %d days", maxDays)
	}

	seed := symbolSeed(symbol)
	prices := make(map[string]float64)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		prices[d.Format(dateLayout)] = closePrice(seed, d)
	}

	data, err := jsoniter.MarshalToString(prices)
	if err != nil {
		return nil, err
	}
	return &pricemcp.ToolCallResult{
		Content: []pricemcp.ContentItem{pricemcp.TextContent(data)},
	}, nil
}

func parseDate(args map[string]interface{}, key string) (time.Time, error) {
	raw, _ := args[key].(string)
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD, got %q", key, raw)
	}
	return t, nil
}

func symbolSeed(symbol string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return h.Sum32()
}

func closePrice(seed uint32, d time.Time) float64 {
	base := 5 + float64(seed%9500)/100
	wave := math.Sin(float64(d.YearDay()+int(seed%365)) / 29)
	return math.Round(base*(1+0.2*wave)*100) / 100
}
