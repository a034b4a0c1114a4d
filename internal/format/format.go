// Package format turns chat values into display strings.
package format

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/malonaz/shopchat/internal/markdown"
)

// DefaultImage is shown for products without a thumbnail.
const DefaultImage = "assets/noImage.png"

const defaultWidth = 80

var (
	million = decimal.NewFromInt(1_000_000)

	rendererOnce sync.Once
	renderer     *markdown.Renderer
)

// Message renders the bold and italic markup of a chat message for the terminal.
func Message(text string) string {
	if text == "" {
		return ""
	}
	rendererOnce.Do(func() {
		renderer, _ = markdown.NewRenderer(defaultWidth)
	})
	if renderer == nil {
		return text
	}
	return renderer.Render("", text)
}

// RelativeTime describes how long ago t was.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	elapsed := now.Sub(t)
	minutes := int(elapsed / time.Minute)
	switch {
	case minutes < 1:
		return "Vừa xong"
	case minutes < 60:
		return fmt.Sprintf("%d phút trước", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%d giờ trước", minutes/60)
	default:
		return t.In(now.Location()).Format("02/01 15:04")
	}
}

// Price formats a VND amount: "2.9 triệu" from one million up, "125.000 ₫" below.
func Price(price decimal.Decimal) string {
	if price.GreaterThanOrEqual(million) {
		return price.Div(million).StringFixed(1) + " triệu"
	}
	amount, _ := price.Round(0).Float64()
	return humanize.FormatFloat("#.###,", amount) + " ₫"
}

// ProductImage resolves a product thumbnail to a displayable url.
// Relative thumbnails are served from the backend's uploads directory.
func ProductImage(thumbnail *string, apiBaseURL string) string {
	if thumbnail == nil || *thumbnail == "" {
		return DefaultImage
	}
	if strings.HasPrefix(*thumbnail, "http") {
		return *thumbnail
	}
	base := strings.TrimSuffix(strings.Replace(apiBaseURL, "/api/v1", "", 1), "/")
	return base + "/uploads/" + *thumbnail
}
