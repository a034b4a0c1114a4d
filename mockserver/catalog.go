package mockserver

import (
	_ "embed"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/malonaz/shopchat/internal/format"
	"github.com/malonaz/shopchat/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog decides how the development backend answers.
type Catalog struct {
	Rules    []*Rule          `yaml:"rules"`
	Fallback *Rule            `yaml:"fallback"`
	Products []CatalogProduct `yaml:"products"`

	products map[int64]model.ProductSuggestion
}

// Rule maps keywords to a templated reply.
// The template receives ReplyData.
type Rule struct {
	Keywords    []string          `yaml:"keywords"`
	Reply       string            `yaml:"reply"`
	MessageType model.MessageType `yaml:"message_type"`
	ProductIDs  []int64           `yaml:"products"`

	template *template.Template
}

// CatalogProduct is a product the backend may suggest.
type CatalogProduct struct {
	ID          int64           `yaml:"id"`
	Name        string          `yaml:"name"`
	Price       decimal.Decimal `yaml:"price"`
	Thumbnail   string          `yaml:"thumbnail"`
	Description string          `yaml:"description"`
	Reason      string          `yaml:"reason"`
}

// ReplyData is passed to reply templates.
type ReplyData struct {
	Message   string
	SessionID string
	UserID    *int64
	Products  []model.ProductSuggestion
}

// LoadCatalog reads a catalog file. An empty path loads the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	bytes := defaultCatalog
	if path != "" {
		var err error
		if bytes, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrap(err, "reading catalog")
		}
	}
	return ParseCatalog(bytes)
}

// ParseCatalog parses and validates a YAML catalog.
func ParseCatalog(bytes []byte) (*Catalog, error) {
	catalog := &Catalog{}
	if err := yaml.Unmarshal(bytes, catalog); err != nil {
		return nil, errors.Wrap(err, "unmarshaling catalog")
	}
	if catalog.Fallback == nil {
		return nil, errors.New("catalog has no fallback rule")
	}

	catalog.products = make(map[int64]model.ProductSuggestion, len(catalog.Products))
	for _, product := range catalog.Products {
		if _, ok := catalog.products[product.ID]; ok {
			return nil, errors.Errorf("duplicate product %d", product.ID)
		}
		catalog.products[product.ID] = product.suggestion()
	}

	funcs := sprig.TxtFuncMap()
	funcs["price"] = format.Price
	rules := make([]*Rule, 0, len(catalog.Rules)+1)
	rules = append(rules, catalog.Rules...)
	rules = append(rules, catalog.Fallback)
	for i, rule := range rules {
		for _, id := range rule.ProductIDs {
			if _, ok := catalog.products[id]; !ok {
				return nil, errors.Errorf("rule %d references unknown product %d", i, id)
			}
		}
		for j, keyword := range rule.Keywords {
			rule.Keywords[j] = strings.ToLower(keyword)
		}
		if rule.MessageType == "" {
			rule.MessageType = model.MessageTypeText
		}
		tmpl, err := template.New("reply").Funcs(funcs).Parse(rule.Reply)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing reply template of rule %d", i)
		}
		rule.template = tmpl
	}
	return catalog, nil
}

// Match returns the first rule with a keyword contained in message, or the fallback.
func (c *Catalog) Match(message string) *Rule {
	message = strings.ToLower(message)
	for _, rule := range c.Rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(message, keyword) {
				return rule
			}
		}
	}
	return c.Fallback
}

// ProductsFor returns the suggestions attached to a rule, in rule order.
func (c *Catalog) ProductsFor(rule *Rule) []model.ProductSuggestion {
	products := make([]model.ProductSuggestion, 0, len(rule.ProductIDs))
	for _, id := range rule.ProductIDs {
		products = append(products, c.products[id])
	}
	return products
}

// Render executes the rule's reply template.
func (r *Rule) Render(data *ReplyData) (string, error) {
	var sb strings.Builder
	if err := r.template.Execute(&sb, data); err != nil {
		return "", errors.Wrap(err, "rendering reply")
	}
	return sb.String(), nil
}

func (p CatalogProduct) suggestion() model.ProductSuggestion {
	return model.ProductSuggestion{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Thumbnail:   optional(p.Thumbnail),
		Description: optional(p.Description),
		Reason:      optional(p.Reason),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
