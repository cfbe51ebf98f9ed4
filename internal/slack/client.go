package slack

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/m96-chan/slackline/internal/model"
)

const (
	defaultRequestTimeout = 15 * time.Second
	defaultRateLimit      = rate.Limit(1)
	defaultBurst          = 5
)

// Options tunes the transport. Zero values use the defaults.
type Options struct {
	// RequestTimeout bounds every HTTP call.
	RequestTimeout time.Duration
	// RequestsPerSecond paces outgoing calls client-side.
	RequestsPerSecond float64
	Burst             int
	// APIURL overrides the Slack endpoint (tests).
	APIURL string
}

// Client is a thin wrapper around slack.Client exposing the operations the
// sync layer needs, with errors mapped onto model.Error.
type Client struct {
	api     *slack.Client
	limiter *rate.Limiter
	UserID  string
	Team    string
}

// New creates a Client for the given bot token. It does not contact Slack;
// call AuthTest to validate the token.
func New(token string, opts Options) *Client {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	limit := defaultRateLimit
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	slackOpts := []slack.Option{
		slack.OptionHTTPClient(&http.Client{Timeout: opts.RequestTimeout}),
	}
	if opts.APIURL != "" {
		slackOpts = append(slackOpts, slack.OptionAPIURL(opts.APIURL))
	}

	return &Client{
		api:     slack.New(token, slackOpts...),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// AuthTest validates the token and records the bot identity.
func (c *Client) AuthTest(ctx context.Context) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return classify("auth.test", err)
	}
	c.UserID = resp.UserID
	c.Team = resp.Team
	return nil
}

// wait blocks until the pacer admits another request.
func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &model.Error{Op: "rate wait", Kind: model.KindTransient, Err: err}
	}
	return nil
}

// ListChannels returns one page of public, non-archived channels.
func (c *Client) ListChannels(ctx context.Context, cursor string, pageSize int) ([]model.Channel, string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, "", err
	}
	chans, next, err := c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		Cursor:          cursor,
		Limit:           pageSize,
		Types:           []string{"public_channel"},
		ExcludeArchived: true,
	})
	if err != nil {
		return nil, "", classify("conversations.list", err)
	}

	out := make([]model.Channel, 0, len(chans))
	for _, ch := range chans {
		out = append(out, toChannel(ch))
	}
	return out, next, nil
}

// ListMembers returns one page of member IDs for a channel.
func (c *Client) ListMembers(ctx context.Context, channelID, cursor string, pageSize int) ([]string, string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, "", err
	}
	ids, next, err := c.api.GetUsersInConversationContext(ctx, &slack.GetUsersInConversationParameters{
		ChannelID: channelID,
		Cursor:    cursor,
		Limit:     pageSize,
	})
	if err != nil {
		return nil, "", classify("conversations.members", err)
	}
	return ids, next, nil
}

// GetChannelInfo returns the channel including the caller's membership.
func (c *Client) GetChannelInfo(ctx context.Context, channelID string) (model.Channel, error) {
	if err := c.wait(ctx); err != nil {
		return model.Channel{}, err
	}
	ch, err := c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		return model.Channel{}, classify("conversations.info", err)
	}
	return toChannel(*ch), nil
}

// JoinChannel joins a public channel.
func (c *Client) JoinChannel(ctx context.Context, channelID string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	if _, _, _, err := c.api.JoinConversationContext(ctx, channelID); err != nil {
		return classify("conversations.join", err)
	}
	return nil
}

// ListHistory returns up to limit of the newest messages, newest first as
// Slack returns them.
func (c *Client) ListHistory(ctx context.Context, channelID string, limit int) ([]model.Message, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     limit,
	})
	if err != nil {
		return nil, classify("conversations.history", err)
	}

	out := make([]model.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		author := m.User
		if author == "" {
			author = m.BotID
		}
		out = append(out, model.Message{TS: m.Timestamp, AuthorID: author, Text: m.Text})
	}
	return out, nil
}

// PostMessage sends text, already in wire format, to a channel.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	if _, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false)); err != nil {
		return classify("chat.postMessage", err)
	}
	return nil
}

// GetUser returns the raw name fields for a user.
func (c *Client) GetUser(ctx context.Context, userID string) (model.UserFields, error) {
	if err := c.wait(ctx); err != nil {
		return model.UserFields{}, err
	}
	u, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return model.UserFields{}, classify("users.info", err)
	}
	return model.UserFields{
		ID:                 u.ID,
		RealName:           u.RealName,
		ProfileRealName:    u.Profile.RealName,
		ProfileDisplayName: u.Profile.DisplayName,
		Name:               u.Name,
	}, nil
}

func toChannel(ch slack.Channel) model.Channel {
	return model.Channel{ID: ch.ID, Name: ch.Name, IsMember: ch.IsMember}
}

// fatalErrors are Slack error codes that no retry will fix.
var fatalErrors = map[string]bool{
	"channel_not_found": true,
	"not_in_channel":    true,
	"is_archived":       true,
	"msg_too_long":      true,
	"no_text":           true,
	"invalid_auth":      true,
	"not_authed":        true,
	"account_inactive":  true,
	"missing_scope":     true,
	"user_not_found":    true,
}

// classify maps a slack-go error onto the model taxonomy.
func classify(op string, err error) error {
	var rle *slack.RateLimitedError
	if errors.As(err, &rle) {
		return model.RateLimited(op, rle.RetryAfter)
	}

	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		if slackErr.Err == "ratelimited" {
			return model.RateLimited(op, 0)
		}
		if fatalErrors[slackErr.Err] {
			return &model.Error{Op: op, Kind: model.KindFatal, Err: err}
		}
		return &model.Error{Op: op, Kind: model.KindTransient, Err: err}
	}

	// Some paths surface the code only in the message text.
	msg := err.Error()
	if msg == "ratelimited" || strings.Contains(msg, "rate limit") {
		return model.RateLimited(op, 0)
	}
	if fatalErrors[msg] {
		return &model.Error{Op: op, Kind: model.KindFatal, Err: err}
	}
	return &model.Error{Op: op, Kind: model.KindTransient, Err: err}
}
