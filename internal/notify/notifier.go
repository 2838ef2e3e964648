// Package notify delivers order outcome messages to the owner's chat.
package notify

import "context"

// Notifier is the downstream notification boundary. Exactly-once delivery
// per outcome is enforced upstream by the reconciler, not here.
type Notifier interface {
	LyricsReady(ctx context.Context, userID, orderID string) error
	OrderCanceled(ctx context.Context, userID, orderID string) error
	SongReady(ctx context.Context, userID, orderID string, urls []string) error
	SongFailed(ctx context.Context, userID, orderID string) error
}

// Nop discards all notifications. Used in tests and when no bot token is
// configured.
type Nop struct{}

func (Nop) LyricsReady(context.Context, string, string) error { return nil }

func (Nop) OrderCanceled(context.Context, string, string) error { return nil }

func (Nop) SongReady(context.Context, string, string, []string) error { return nil }

func (Nop) SongFailed(context.Context, string, string) error { return nil }

var _ Notifier = Nop{}
