package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"appointment-watcher/checker"
	"appointment-watcher/storage"
	"appointment-watcher/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI — часть *tgbotapi.BotAPI, нужная обработчикам.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// PhaseReader отдаёт текущее состояние цикла проверки.
type PhaseReader interface {
	Phase() checker.Phase
}

type Handler struct {
	Bot     BotAPI
	Store   storage.Store
	Checker PhaseReader
	ChatID  int64 // обслуживаем только чат оператора
	Logger  *slog.Logger
}

func New(bot BotAPI, store storage.Store, checker PhaseReader, chatID int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Bot:     bot,
		Store:   store,
		Checker: checker,
		ChatID:  chatID,
		Logger:  logger,
	}
}

// Serve читает обновления до отмены ctx или закрытия канала.
func (h *Handler) Serve(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				h.HandleMessage(ctx, update.Message)
			}
		}
	}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || msg.Chat.ID != h.ChatID {
		h.Logger.Warn("🚫 ignoring message from foreign chat", "chat_id", chatID(msg))
		return
	}

	switch msg.Command() {
	case "start":
		h.HandleStart(msg)
	case "status":
		h.HandleStatus(ctx, msg)
	default:
		h.reply(msg.Chat.ID, "Unknown command. Try /start")
	}
}

func (h *Handler) HandleStart(msg *tgbotapi.Message) {
	text := "👋 I watch the appointment portal and tell you when an earlier slot shows up.\n\n" +
		"Commands:\n" +
		"/status — current earliest appointment and checker state"
	h.reply(msg.Chat.ID, text)
}

func (h *Handler) HandleStatus(ctx context.Context, msg *tgbotapi.Message) {
	state, err := h.Store.Load(ctx)
	if err != nil {
		h.Logger.Error("⚠️ error loading state for /status", "error", err)
		h.reply(msg.Chat.ID, "⚠️ Could not load the saved state.")
		return
	}
	h.reply(msg.Chat.ID, statusText(state, h.Checker.Phase()))
}

func statusText(state types.MonitorState, phase checker.Phase) string {
	if state.Empty() {
		return fmt.Sprintf("📭 No appointment tracked yet.\n🔄 Checker: %s", phase)
	}
	return fmt.Sprintf("📬 Earliest appointment: %s\n🔄 Checker: %s", state.Earliest, phase)
}

func (h *Handler) reply(chat int64, text string) {
	if _, err := h.Bot.Send(tgbotapi.NewMessage(chat, text)); err != nil {
		h.Logger.Error("⚠️ error sending reply", "chat_id", chat, "error", err)
	}
}

func chatID(msg *tgbotapi.Message) int64 {
	if msg.Chat == nil {
		return 0
	}
	return msg.Chat.ID
}
