package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// CommandHandler maps a user command (without the leading slash) to a reply.
type CommandHandler func(command string) string

// StartPolling long-polls Telegram for commands. Blocks until ctx is cancelled.
// Commands from chats other than the configured one are ignored.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := t.Bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			t.Bot.StopReceivingUpdates()
			log.Info().Msg("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handle(update, handler)
		}
	}
}

func (t *TelegramNotifier) handle(update tgbotapi.Update, handler CommandHandler) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Chat.ID != t.ChatID {
		return
	}
	command := msg.Command()
	if command == "" {
		command = strings.TrimPrefix(strings.TrimSpace(msg.Text), "/")
	}
	if command == "" {
		return
	}
	log.Info().Str("command", command).Msg("received command")

	if reply := handler(command); reply != "" {
		if err := t.sendTo(msg.Chat.ID, reply); err != nil {
			log.Error().Err(err).Str("command", command).Msg("send reply")
		}
	}
}
