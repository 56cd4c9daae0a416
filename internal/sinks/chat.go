package sinks

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"single_sensor/internal/models"
)

// Slack posts alert messages to one channel.
type Slack struct {
	client  *slack.Client
	channel string
}

// NewSlack builds the chat sink. apiURL overrides the Slack endpoint and must
// end with a slash; empty keeps the default.
func NewSlack(token, channel, apiURL string) *Slack {
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &Slack{client: slack.New(token, opts...), channel: channel}
}

func (s *Slack) Notify(ctx context.Context, ev models.AlertEvent) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(ev.Message(), false))
	if err != nil {
		return fmt.Errorf("post %s alert to %s: %w", ev.Kind, s.channel, err)
	}
	return nil
}
