package pricemcp

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentItem_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind ContentKind
		wantType string
	}{
		{"text", `{"type":"text","text":"{}"}`, ContentText, "text"},
		{"empty text", `{"type":"text","text":""}`, ContentText, "text"},
		{"text without text field", `{"type":"text"}`, ContentUnknown, "text"},
		{"structured", `{"type":"json","json":{"2024-01-01":1}}`, ContentStructured, "json"},
		{"null json", `{"type":"json","json":null}`, ContentUnknown, "json"},
		{"image", `{"type":"image","data":"aGVsbG8=","mimeType":"image/png"}`, ContentUnknown, "image"},
		{"resource", `{"type":"resource","resource":{"uri":"file:///x"}}`, ContentUnknown, "resource"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var item ContentItem
			require.NoError(t, jsoniter.Unmarshal([]byte(tt.raw), &item))
			assert.Equal(t, tt.wantKind, item.Kind)
			assert.Equal(t, tt.wantType, item.Type)
		})
	}
}

func TestToolCallResult_Unmarshal(t *testing.T) {
	raw := `{"content":[{"type":"text","text":"a"},{"type":"image","data":""},{"type":"text","text":"b"}],"isError":true}`
	var result ToolCallResult
	require.NoError(t, jsoniter.Unmarshal([]byte(raw), &result))

	require.Len(t, result.Content, 3)
	assert.True(t, result.IsError)
	assert.Equal(t, "ab", result.Text())
	assert.Equal(t, "unknown", result.Content[1].Kind.String())
}

func TestContentItem_MarshalJSON(t *testing.T) {
	data, err := jsoniter.Marshal(TextContent("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"text","text":"hi"}`, string(data))

	data, err = jsoniter.Marshal(StructuredContent(map[string]interface{}{"d": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"json","json":{"d":1}}`, string(data))

	data, err = jsoniter.Marshal(ContentItem{Kind: ContentUnknown, Type: "image"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"image"}`, string(data))
}
