package notifyutils

import (
	"fmt"

	"github.com/recallhq/recall/pkg/notify"
	"github.com/recallhq/recall/pkg/notify/discord"
	"github.com/recallhq/recall/pkg/notify/nop"
	"github.com/recallhq/recall/pkg/notify/webhook"
)

type NewNotifierOpts struct {
	ProviderType string

	// TargetURL is the webhook base URL for the webhook provider.
	TargetURL string

	// Token is the bot token for the discord provider.
	Token string
}

func NewNotifier(o *NewNotifierOpts) (notify.Notifier, error) {
	switch o.ProviderType {
	case "webhook":
		return webhook.NewNotifier(webhook.Config{
			BaseURL: o.TargetURL,
		})
	case "discord":
		return discord.NewNotifier(discord.Config{
			Token: o.Token,
		})
	case "nop":
		return nop.NewNotifier(), nil
	default:
		return nil, fmt.Errorf("unsupported notification provider: %s", o.ProviderType)
	}
}
