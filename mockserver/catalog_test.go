package mockserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/shopchat/model"
)

func TestDefaultCatalog(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)

	rule := catalog.Match("Tìm điện thoại giá rẻ")
	assert.Equal(t, model.MessageTypeProductList, rule.MessageType)
	products := catalog.ProductsFor(rule)
	require.Len(t, products, 3)
	assert.Equal(t, int64(1), products[0].ID)

	reply, err := rule.Render(&ReplyData{Message: "Tìm điện thoại giá rẻ", Products: products})
	require.NoError(t, err)
	assert.Contains(t, reply, "**3 điện thoại**")
	assert.Contains(t, reply, "Galaxy A15")
	assert.Contains(t, reply, "4.0 triệu")
	assert.Contains(t, reply, "590.000 ₫")

	assert.Equal(t, model.MessageTypeProductList, catalog.Match("Laptop cho sinh viên").MessageType)
	assert.Len(t, catalog.ProductsFor(catalog.Match("Tai nghe bluetooth tốt")), 2)
	assert.Same(t, catalog.Fallback, catalog.Match("thời tiết hôm nay"))
}

func TestParseCatalog(t *testing.T) {
	catalog, err := ParseCatalog([]byte(`
rules:
  - keywords: ["Ping"]
    reply: "pong {{ .Message | upper }}"
fallback:
  reply: "?"
`))
	require.NoError(t, err)
	rule := catalog.Match("say ping")
	assert.Equal(t, model.MessageTypeText, rule.MessageType)
	reply, err := rule.Render(&ReplyData{Message: "say ping"})
	require.NoError(t, err)
	assert.Equal(t, "pong SAY PING", reply)
	assert.Empty(t, catalog.ProductsFor(rule))
}

func TestParseCatalogErrors(t *testing.T) {
	tests := map[string]string{
		"no fallback":       `rules: []`,
		"unknown product":   "fallback:\n  reply: x\n  products: [9]\n",
		"bad template":      "fallback:\n  reply: \"{{ .Message \"\n",
		"duplicate product": "fallback:\n  reply: x\nproducts:\n  - id: 1\n  - id: 1\n",
		"not yaml":          "::",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(input))
			assert.Error(t, err)
		})
	}
}
