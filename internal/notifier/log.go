package notifier

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

var tags = regexp.MustCompile(`</?[a-z]+>`)

// LogNotifier writes reports to the log when no chat is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, text string) error {
	plain := tags.ReplaceAllString(text, "")
	plain = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&").Replace(plain)
	log.Info().Msg("report\n" + strings.TrimRight(plain, "\n"))
	return nil
}

var (
	_ Notifier = LogNotifier{}
	_ Notifier = (*TelegramNotifier)(nil)
)
