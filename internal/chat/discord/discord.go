// Package discord implements chat.Platform on top of a Discord bot account.
package discord

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/chat"
)

// InviteBaseURL prefixes invite codes to form shareable links.
const InviteBaseURL = "https://discord.gg/"

// maxChannelName is Discord's channel name length limit.
const maxChannelName = 100

// api is the subset of *discordgo.Session the client calls.
type api interface {
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelInviteCreate(channelID string, i discordgo.Invite, options ...discordgo.RequestOption) (*discordgo.Invite, error)
}

// Options configures channel placement and invite lifetime.
type Options struct {
	GuildID       string
	CategoryID    string        // optional parent category for session channels
	InviteMaxAge  time.Duration // 0 = never expires
	InviteMaxUses int           // 0 = unlimited
}

// Client creates per-session text channels and invites in one guild.
type Client struct {
	api    api
	opts   Options
	logger *zap.Logger
}

// New opens a bot session with token.
//
// Precondition: token and opts.GuildID must be non-empty.
// Postcondition: Returns a ready Client or a non-nil error.
func New(token string, opts Options, logger *zap.Logger) (*Client, error) {
	if opts.GuildID == "" {
		return nil, fmt.Errorf("discord: guild id must not be empty")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: creating session: %w", err)
	}
	return newClient(s, opts, logger), nil
}

func newClient(a api, opts Options, logger *zap.Logger) *Client {
	return &Client{api: a, opts: opts, logger: logger}
}

// CreateChannel creates a text channel named after the session.
//
// Postcondition: Returns the channel ID or the Discord API error.
func (c *Client) CreateChannel(ctx context.Context, sessionID, name string) (chat.Channel, error) {
	start := time.Now()
	ch, err := c.api.GuildChannelCreateComplex(c.opts.GuildID, discordgo.GuildChannelCreateData{
		Name:     ChannelName(name),
		Type:     discordgo.ChannelTypeGuildText,
		Topic:    "Game session " + sessionID,
		ParentID: c.opts.CategoryID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return chat.Channel{}, fmt.Errorf("discord: creating channel for session %s: %w", sessionID, err)
	}
	c.logger.Info("discord channel created",
		zap.String("session_id", sessionID),
		zap.String("channel_id", ch.ID),
		zap.Duration("elapsed", time.Since(start)),
	)
	return chat.Channel{ID: ch.ID}, nil
}

// CreateInvite creates an invite into channelID.
//
// Postcondition: Returns the invite link or the Discord API error.
func (c *Client) CreateInvite(ctx context.Context, channelID string) (chat.Invite, error) {
	inv, err := c.api.ChannelInviteCreate(channelID, discordgo.Invite{
		MaxAge:  int(c.opts.InviteMaxAge / time.Second),
		MaxUses: c.opts.InviteMaxUses,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return chat.Invite{}, fmt.Errorf("discord: creating invite for channel %s: %w", channelID, err)
	}
	return chat.Invite{URL: InviteBaseURL + inv.Code}, nil
}

// ChannelName converts a free-form game name into a valid text channel name:
// lower case, runs of anything but letters and digits collapsed to one hyphen.
func ChannelName(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		out = "game"
	}
	for len(out) > maxChannelName {
		_, size := utf8.DecodeLastRuneInString(out)
		out = strings.TrimSuffix(out[:len(out)-size], "-")
	}
	return out
}
