package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/processor"
	"comment-insights-go/internal/types"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func nullEntry() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

func TestNotifySendsDigest(t *testing.T) {
	s := &fakeSender{}
	n := NewWithSender(s, 1234, nullEntry())
	run := &processor.Run{
		Kind:     processor.KindArticle,
		Subject:  "Interrail at 50",
		Insights: types.Insights{Brands: []types.Brand{{Name: "Eurostar", Sentiment: "positive", Mentions: 3}}},
	}

	require.NoError(t, n.Notify(context.Background(), run))
	require.Len(t, s.sent, 1)
	msg := s.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(1234), msg.ChatID)
	assert.True(t, msg.DisableWebPagePreview)
	assert.Contains(t, msg.Text, "Commercial insights: Interrail at 50 (article)")
	assert.Contains(t, msg.Text, "Eurostar")
}

func TestNotifyPropagatesSendError(t *testing.T) {
	n := NewWithSender(&fakeSender{err: errors.New("forbidden")}, 1, nullEntry())
	err := n.Notify(context.Background(), &processor.Run{Insights: types.EmptyInsights()})
	assert.ErrorContains(t, err, "forbidden")
}

func TestNotifyLongDigestIsClipped(t *testing.T) {
	s := &fakeSender{}
	n := NewWithSender(s, 1, nullEntry())
	run := &processor.Run{Subject: "big", Insights: types.EmptyInsights()}
	for i := 0; i < 300; i++ {
		run.Insights.Brands = append(run.Insights.Brands, types.Brand{Name: strings.Repeat("x", 20), Mentions: 1})
	}

	require.NoError(t, n.Notify(context.Background(), run))
	text := s.sent[0].(tgbotapi.MessageConfig).Text
	assert.Equal(t, maxMessageLen, len([]rune(text)))
	assert.True(t, strings.HasSuffix(text, "…"))
}

func TestNewTelegramRequiresSettings(t *testing.T) {
	_, err := NewTelegram(config.TelegramConfig{}, nullEntry())
	assert.ErrorIs(t, err, types.ErrConfiguration)

	_, err = NewTelegram(config.TelegramConfig{Token: "t"}, nullEntry())
	assert.ErrorIs(t, err, types.ErrConfiguration)
}
