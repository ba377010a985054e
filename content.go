package pricemcp

import (
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

// ContentKind 内容项的类型标签
type ContentKind int

const (
	ContentUnknown ContentKind = iota
	ContentText
	ContentStructured
)

func (k ContentKind) String() string {
	switch k {
	case ContentText:
		return "text"
	case ContentStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// ContentItem 工具调用结果中的一项。
// Text 与 Value 同一时间最多只有一个有意义，由 Kind 决定。
type ContentItem struct {
	Kind ContentKind
	// Type 线上的原始 type 字段
	Type  string
	Text  string
	Value interface{}
}

// TextContent 构造文本内容
func TextContent(text string) ContentItem {
	return ContentItem{Kind: ContentText, Type: "text", Text: text}
}

// StructuredContent 构造已解析的 JSON 内容
func StructuredContent(value interface{}) ContentItem {
	return ContentItem{Kind: ContentStructured, Type: "json", Value: value}
}

// UnmarshalJSON 文本项为 {"type":"text","text":...}，带 json 字段的为结构化项，其余为未知
func (c *ContentItem) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type string          `json:"type"`
		Text *string         `json:"text"`
		JSON json.RawMessage `json:"json"`
	}
	if err := jsoniter.Unmarshal(data, &wire); err != nil {
		return err
	}

	*c = ContentItem{Type: wire.Type}
	switch {
	case wire.Type == "text" && wire.Text != nil:
		c.Kind = ContentText
		c.Text = *wire.Text
	case len(wire.JSON) > 0 && string(wire.JSON) != "null":
		var value interface{}
		if err := numberAPI.Unmarshal(wire.JSON, &value); err != nil {
			return err
		}
		c.Kind = ContentStructured
		c.Value = value
	default:
		c.Kind = ContentUnknown
	}
	return nil
}

func (c ContentItem) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ContentText:
		return jsoniter.Marshal(map[string]interface{}{
			"type": "text",
			"text": c.Text,
		})
	case ContentStructured:
		typ := c.Type
		if typ == "" {
			typ = "json"
		}
		return jsoniter.Marshal(map[string]interface{}{
			"type": typ,
			"json": c.Value,
		})
	default:
		typ := c.Type
		if typ == "" {
			typ = "unknown"
		}
		return jsoniter.Marshal(map[string]interface{}{"type": typ})
	}
}
