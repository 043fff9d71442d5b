// Package notify announces run completion on Slack.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/slack-go/slack"

	"github.com/workforcehq/workforce/internal/session"
)

// SlackNotifier posts a short summary when a run reaches its terminal
// event. It implements session.Observer and ignores all other events.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

// NewSlackNotifier creates a notifier for the given channel.
func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token),
		channel: channel,
	}
}

// ObserveEvent posts on complete and error events.
func (n *SlackNotifier) ObserveEvent(runID string, ev session.Event) {
	if !ev.Terminal() {
		return
	}

	var text string
	switch ev.Type {
	case session.EventComplete:
		text = fmt.Sprintf("Run %s completed (%d agents involved).", runID, len(ev.AgentsInvolved))
	case session.EventError:
		text = fmt.Sprintf("Run %s failed: %s", runID, ev.Error)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, _, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(text, false)); err != nil {
		slog.Warn("Slack notify failed", "run_id", runID, "error", err)
	}
}
