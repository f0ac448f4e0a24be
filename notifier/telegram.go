package notifier

import (
	"context"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram шлёт уведомления в один чат.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramBot авторизует бота. endpoint пустой — официальный API.
func NewTelegramBot(token, endpoint string, client *http.Client) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: defaultSendTimeout}
	}
	return tgbotapi.NewBotAPIWithClient(token, endpoint, client)
}

func NewTelegram(bot *tgbotapi.BotAPI, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

// Send ждёт ответа Telegram не дольше, чем живёт ctx. Сам запрос ограничен
// таймаутом HTTP клиента бота.
func (t *Telegram) Send(ctx context.Context, text string) error {
	errc := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text))
		errc <- err
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender пишет уведомления в лог, когда Telegram не настроен.
type LogSender struct {
	Logger *slog.Logger
}

func (l LogSender) Send(ctx context.Context, text string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("📣 notification", "message", text)
	return nil
}
