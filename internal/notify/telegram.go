// Package notify announces finished runs on Telegram.
package notify

import (
	"context"
	"fmt"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/digest"
	"comment-insights-go/internal/processor"
	"comment-insights-go/internal/types"
)

// maxMessageLen is Telegram's limit for one text message.
const maxMessageLen = 4096

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	sender Sender
	chatID int64
	log    *logrus.Entry
}

var _ processor.Notifier = (*Telegram)(nil)

// NewTelegram connects to the Bot API with the configured token.
func NewTelegram(cfg config.TelegramConfig, log *logrus.Entry) (*Telegram, error) {
	if cfg.Token == "" {
		return nil, &types.ConfigurationError{Setting: "TELEGRAM_BOT_TOKEN"}
	}
	if cfg.ChatID == 0 {
		return nil, &types.ConfigurationError{Setting: "TELEGRAM_CHAT_ID"}
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return NewWithSender(bot, cfg.ChatID, log), nil
}

func NewWithSender(s Sender, chatID int64, log *logrus.Entry) *Telegram {
	return &Telegram{sender: s, chatID: chatID, log: log.WithField("component", "notify-telegram")}
}

// Notify sends the run digest as a plain-text message.
func (t *Telegram) Notify(ctx context.Context, run *processor.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, clip(digest.Render(run), maxMessageLen))
	msg.DisableWebPagePreview = true

	sent, err := t.sender.Send(msg)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	t.log.WithFields(logrus.Fields{"run_id": run.ID, "message_id": sent.MessageID}).Info("run digest sent")
	return nil
}

// clip keeps at most n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
