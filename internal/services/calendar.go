package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"conference-agenda-sync/internal/config"
)

// CalendarProvider queries the calendar provider for events in a window
// using a caller-supplied access token.
type CalendarProvider interface {
	ListEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time, maxResults int64) ([]*calendar.Event, error)
}

// TokenRefresher exchanges a refresh token for a fresh access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// GoogleCalendarClient implements CalendarProvider against the Google
// Calendar API. A new service is built per call because the access token is
// per-user and short-lived.
type GoogleCalendarClient struct {
	logger *zap.Logger
}

func NewGoogleCalendarClient(logger *zap.Logger) *GoogleCalendarClient {
	return &GoogleCalendarClient{logger: logger}
}

// ListEvents fetches the user's primary-calendar events in [timeMin, timeMax],
// with recurrences expanded to single events. Any call failure or a response
// missing its items array is a *ProviderFetchError.
func (c *GoogleCalendarClient) ListEvents(ctx context.Context, accessToken string, timeMin, timeMax time.Time, maxResults int64) ([]*calendar.Event, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := calendar.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, &ProviderFetchError{Err: fmt.Errorf("failed to create calendar service: %w", err)}
	}

	events, err := service.Events.List("primary").
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		MaxResults(maxResults).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &ProviderFetchError{Err: err}
	}
	if events == nil || events.Items == nil {
		return nil, &ProviderFetchError{Err: fmt.Errorf("provider response has no items array")}
	}

	c.logger.Debug("fetched provider events", zap.Int("count", len(events.Items)))
	return events.Items, nil
}

// GoogleTokenRefresher implements TokenRefresher with the Google OAuth
// endpoint. Consent acquisition lives outside this service; only the
// refresh-token exchange happens here.
type GoogleTokenRefresher struct {
	conf *oauth2.Config
}

func NewGoogleTokenRefresher(cfg config.GoogleConfig) *GoogleTokenRefresher {
	return &GoogleTokenRefresher{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendar.CalendarReadonlyScope},
		},
	}
}

// Refresh exchanges refreshToken for a new access token. Any failure —
// including a response with an empty access token — is a *RefreshError.
func (r *GoogleTokenRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	tokenSource := r.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := tokenSource.Token()
	if err != nil {
		return nil, &RefreshError{Err: err}
	}
	if token.AccessToken == "" {
		return nil, &RefreshError{Err: fmt.Errorf("provider returned an empty access token")}
	}
	return token, nil
}
