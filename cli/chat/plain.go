package chat

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/malonaz/shopchat/app"
	chatclient "github.com/malonaz/shopchat/chat"
	"github.com/malonaz/shopchat/internal/cli"
	"github.com/malonaz/shopchat/internal/format"
	"github.com/malonaz/shopchat/model"
)

const plainHelp = "/1../9 gợi ý nhanh, /product N xem sản phẩm, /clear xóa lịch sử, /quit thoát"

// runPlain runs the chat window as a line based prompt.
func runPlain(ctx context.Context, a *app.App) error {
	w := a.NewWindow()
	release := w.Activate(ctx)
	defer release()
	a.Machine.Open()
	w.Observe(a.Machine.Snapshot())

	prompt, err := cli.NewPrompt("")
	if err != nil {
		return errors.Wrap(err, "creating prompt")
	}
	defer prompt.Close()
	for _, entry := range a.Recall.Entries() {
		prompt.AddHistory(entry)
	}

	cli.Title("Trợ lý mua sắm")
	now := time.Now()
	for _, message := range w.Messages() {
		printMessage(message, a.Config.APIBaseURL, now)
	}
	if len(w.Messages()) == 0 {
		cli.BotMessage("Xin chào! Tôi có thể giúp gì cho bạn?")
		for i, suggestion := range a.Config.Chat.QuickSuggestions {
			cli.Info("  /%d %s", i+1, suggestion)
		}
	}
	cli.Info(plainHelp)

	for {
		line, err := prompt.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading input")
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue

		case line == "/quit":
			return nil

		case line == "/help":
			cli.Info(plainHelp)
			continue

		case line == "/clear":
			if w.Clear(cli.QueryUser) {
				cli.Info("Đã xóa lịch sử chat")
			}
			continue

		case strings.HasPrefix(line, "/product"):
			id, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "/product")), 10, 64)
			if err != nil || id <= 0 {
				cli.Error("usage: /product N")
				continue
			}
			cli.Info("%s", w.ViewProduct(id))
			return nil
		}

		if suggestion, ok := quickSuggestion(line, a.Config.Chat.QuickSuggestions); ok {
			line = suggestion
			cli.UserMessage(line)
		}

		a.Recall.Add(line)
		w.SetInput(line)
		cli.Info("...")
		reply, err := w.SendMessage(ctx)
		if err != nil {
			if !errors.Is(err, chatclient.ErrEmptyMessage) {
				cli.Error("%v", err)
			}
			continue
		}
		printMessage(reply.Message, a.Config.APIBaseURL, time.Now())
	}
}

// quickSuggestion resolves "/N" to the N-th quick suggestion.
func quickSuggestion(line string, suggestions []string) (string, bool) {
	index, err := strconv.Atoi(strings.TrimPrefix(line, "/"))
	if !strings.HasPrefix(line, "/") || err != nil || index < 1 || index > len(suggestions) {
		return "", false
	}
	return suggestions[index-1], true
}

func printMessage(message model.Message, apiBaseURL string, now time.Time) {
	if message.Sender == model.SenderUser {
		cli.UserMessage("> " + message.Text)
	} else {
		cli.BotMessage(format.Message(message.Text))
		for _, product := range message.Products {
			cli.Product("  #%d %s  %s", product.ID, product.Name, format.Price(product.Price))
			cli.Info("     %s", format.ProductImage(product.Thumbnail, apiBaseURL))
		}
	}
	cli.Info("%s", format.RelativeTime(message.CreatedAt, now))
}
