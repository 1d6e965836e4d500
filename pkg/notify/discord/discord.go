// Package discord implements notify.Notifier over a Discord bot session. The
// channel string is the Discord channel id the reminder is delivered to.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/recallhq/recall/pkg/notify"
)

// Notifier sends messages through a Discord bot.
type Notifier struct {
	session *discordgo.Session
}

// Config holds configuration for the Discord notifier.
type Config struct {
	// Token is the bot token. Required.
	Token string
}

// NewNotifier creates a Discord notifier. Sending uses the REST API only, so
// no gateway connection is opened.
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord bot token is required")
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	return &Notifier{session: session}, nil
}

// Deliver sends text to the given Discord channel id.
func (n *Notifier) Deliver(ctx context.Context, channel, text string) (*notify.Delivery, error) {
	msg, err := n.session.ChannelMessageSend(channel, text, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: discord send: %v", notify.ErrDelivery, err)
	}

	return &notify.Delivery{
		Success:   true,
		MessageID: msg.ID,
	}, nil
}

// Close releases the underlying session.
func (n *Notifier) Close() error {
	return n.session.Close()
}

var _ notify.Notifier = (*Notifier)(nil)
