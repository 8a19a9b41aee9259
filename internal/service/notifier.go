package service

import "context"

// Notifier delivers a message to a user. Delivery is best effort: failures
// are logged and counted by the implementation and never reach the caller.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, title, body string, data map[string]string)
}

// ProspectMessenger delivers the interest link to a referred prospect.
type ProspectMessenger interface {
	Send(to, subject, body string) error
}

// Pusher sends a background push to a device token.
type Pusher interface {
	Push(ctx context.Context, token, title, body string, data map[string]string) error
}

// Broadcaster delivers to a user's live connections, returning how many accepted.
type Broadcaster interface {
	BroadcastToUser(userID string, payload interface{}) int
}
