package client

import (
	"context"

	"spareparts/pkg/logger"
)

// Notifier shows a failure to the user. The pipeline calls it exactly once
// per failed call; nothing else in the client does.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, message string) { f(ctx, message) }

// LogNotifier reports failures through the structured logger. It is the
// default when no user-facing surface is wired.
type LogNotifier struct {
	Log *logger.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, message string) {
	n.Log.WithContext(ctx).Warnw("request failed", "message", message)
}
