// Package chat defines the chat-platform collaborator that gives every game
// session its own channel and invite link.
package chat

import (
	"context"

	"go.uber.org/zap"
)

// Channel is a chat channel created for a session.
type Channel struct {
	ID string
}

// Invite is a shareable link into a channel.
type Invite struct {
	URL string
}

// Platform creates channels and invites. Returned identifiers are opaque.
type Platform interface {
	CreateChannel(ctx context.Context, sessionID, name string) (Channel, error)
	CreateInvite(ctx context.Context, channelID string) (Invite, error)
}

// Disabled is the Platform used when no chat integration is configured.
// Channels and invites come back empty.
type Disabled struct {
	Logger *zap.Logger
}

// CreateChannel logs the request and returns an empty Channel.
func (d Disabled) CreateChannel(_ context.Context, sessionID, name string) (Channel, error) {
	d.Logger.Debug("chat disabled, skipping channel creation",
		zap.String("session_id", sessionID),
		zap.String("name", name),
	)
	return Channel{}, nil
}

// CreateInvite logs the request and returns an empty Invite.
func (d Disabled) CreateInvite(_ context.Context, channelID string) (Invite, error) {
	d.Logger.Debug("chat disabled, skipping invite creation", zap.String("channel_id", channelID))
	return Invite{}, nil
}
