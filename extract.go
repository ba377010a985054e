package pricemcp

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// numberAPI 数字保留为 json.Number，超出 float64 范围的值不会让整个载荷解析失败
var numberAPI = jsoniter.Config{UseNumber: true}.Froze()

// PriceSeries 日期字符串到价格的映射，值均为有限数
type PriceSeries map[string]float64

// DegradeReason 说明提取结果为什么是空序列
type DegradeReason string

const (
	ReasonNoPayload  DegradeReason = "no_payload"
	ReasonMalformed  DegradeReason = "malformed_json"
	ReasonWrongShape DegradeReason = "not_an_object"
	ReasonNonNumeric DegradeReason = "non_numeric_value"
)

// Extraction 提取结果。Reason 为空表示载荷有效，此时 Series 也可能为空（例如 {}）。
type Extraction struct {
	Series PriceSeries
	Reason DegradeReason
}

// Degraded 载荷无法使用
func (e Extraction) Degraded() bool {
	return e.Reason != ""
}

// Extract 把内容项转换成价格序列，任何无效载荷都得到空序列
func Extract(item ContentItem) PriceSeries {
	return ExtractItem(item).Series
}

// ExtractItem 与 Extract 相同，但保留降级原因。
// 非有限值（NaN、Inf）按键丢弃，不会进入 Reduce。
func ExtractItem(item ContentItem) Extraction {
	switch item.Kind {
	case ContentText:
		var value interface{}
		if err := numberAPI.UnmarshalFromString(item.Text, &value); err != nil {
			return degraded(ReasonMalformed)
		}
		return fromValue(value)
	case ContentStructured:
		return fromValue(item.Value)
	default:
		return degraded(ReasonNoPayload)
	}
}

func fromValue(value interface{}) Extraction {
	switch object := value.(type) {
	case PriceSeries:
		return fromFloats(object)
	case map[string]float64:
		return fromFloats(object)
	case map[string]interface{}:
		series := make(PriceSeries, len(object))
		for date, raw := range object {
			price, ok := toFloat(raw)
			if !ok {
				return degraded(ReasonNonNumeric)
			}
			if isFinite(price) {
				series[date] = price
			}
		}
		return Extraction{Series: series}
	default:
		return degraded(ReasonWrongShape)
	}
}

func fromFloats(object map[string]float64) Extraction {
	series := make(PriceSeries, len(object))
	for date, price := range object {
		if isFinite(price) {
			series[date] = price
		}
	}
	return Extraction{Series: series}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		if errors.Is(err, strconv.ErrRange) {
			// 溢出得到 ±Inf，由调用方丢弃
			return f, true
		}
		return f, err == nil
	default:
		return 0, false
	}
}

func degraded(reason DegradeReason) Extraction {
	return Extraction{Series: PriceSeries{}, Reason: reason}
}
