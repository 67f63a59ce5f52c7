package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	syncdomain "rolodex-backend/internal/sync/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc func(*oauth2.Token) error

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc

	mu sync.Mutex
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}
	}
	return t, nil
}

// NewClient builds an HTTP client that authenticates with the user's Google
// tokens and pushes every refreshed token through onTokenRefresh before use.
func NewClient(ctx context.Context, clientID, clientSecret, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) *http.Client {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
	}

	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	return oauth2.NewClient(ctx, wrappedSource)
}

// TranslateError maps Google API errors onto the sync pipeline's error
// vocabulary so callers never inspect transport details.
func TranslateError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return syncdomain.ErrGrantRevoked
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401:
			return syncdomain.ErrGrantRevoked
		case 429:
			return &syncdomain.RateLimitError{RetryAfter: retryAfterOf(apiErr)}
		case 403:
			for _, item := range apiErr.Errors {
				if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
					return &syncdomain.RateLimitError{RetryAfter: retryAfterOf(apiErr)}
				}
			}
		}
	}
	return err
}

func retryAfterOf(apiErr *googleapi.Error) time.Duration {
	raw := apiErr.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := time.Parse(time.RFC1123, raw); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}
