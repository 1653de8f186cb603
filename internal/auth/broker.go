package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultTimeout = 15 * time.Second

// ErrUnavailable means the refresh token could not be exchanged. A second
// attempt with the same token in the same run is not expected to succeed.
var ErrUnavailable = errors.New("access credential unavailable")

var scopes = []string{
	"https://www.googleapis.com/auth/youtube.upload",
}

type Broker struct {
	config     *oauth2.Config
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*Broker)

func WithTokenURL(tokenURL string) Option {
	return func(b *Broker) {
		if tokenURL != "" {
			b.config.Endpoint.TokenURL = tokenURL
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(b *Broker) {
		b.httpClient = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(b *Broker) {
		if timeout > 0 {
			b.timeout = timeout
		}
	}
}

func NewBroker(clientID, clientSecret string, opts ...Option) *Broker {
	endpoint := google.Endpoint
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	b := &Broker{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Renew exchanges a stored refresh token for a short-lived access token.
// Every failure is reported as ErrUnavailable.
func (b *Broker) Renew(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token stored", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if b.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	}

	source := b.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrUnavailable)
	}

	return token, nil
}
