package gmail

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	syncdomain "rolodex-backend/internal/sync/domain"
	"rolodex-backend/pkg/googleauth"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// metadataHeaders is what one message fetch asks for: addressing, subject
// and the headers the automated-sender classifier inspects.
var metadataHeaders = []string{
	"From", "To", "Cc", "Subject", "Date",
	"List-Unsubscribe", "Precedence", "Auto-Submitted",
}

type Service struct {
	clientID     string
	clientSecret string
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// MessageSource returns a paginated view over the user's mailbox. Refreshed
// tokens are pushed through onTokenRefresh before use.
func (s *Service) MessageSource(ctx context.Context, accessToken, refreshToken string, onTokenRefresh googleauth.TokenUpdateFunc) (syncdomain.MessageSource, error) {
	client := googleauth.NewClient(ctx, s.clientID, s.clientSecret, accessToken, refreshToken, onTokenRefresh)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}
	return &messageSource{srv: srv}, nil
}

type messageSource struct {
	srv *gmail.Service
}

// ListMessages returns one page of the user's messages, sent and received,
// newest first. The after bound rides the Gmail search query so incremental
// syncs only touch new mail.
func (m *messageSource) ListMessages(ctx context.Context, after *time.Time, pageToken string, pageSize int64) (*syncdomain.MessagePage, error) {
	user := "me"

	if pageSize <= 0 || pageSize > 500 {
		pageSize = 100
	}

	listQuery := m.srv.Users.Messages.List(user).MaxResults(pageSize)
	if after != nil {
		listQuery = listQuery.Q(fmt.Sprintf("after:%d", after.Unix()))
	}
	if pageToken != "" {
		listQuery = listQuery.PageToken(pageToken)
	}

	resp, err := listQuery.Context(ctx).Do()
	if err != nil {
		return nil, googleauth.TranslateError(err)
	}

	messages := make([]*syncdomain.Message, len(resp.Messages))
	errs := make([]error, len(resp.Messages))

	// Fetch message metadata in parallel (with reasonable concurrency limit)
	semaphore := make(chan struct{}, 10)
	var wg sync.WaitGroup

	for i, msg := range resp.Messages {
		wg.Add(1)
		go func(i int, msgID string) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			full, err := m.srv.Users.Messages.Get(user, msgID).
				Format("metadata").
				MetadataHeaders(metadataHeaders...).
				Context(ctx).Do()
			if err != nil {
				errs[i] = googleauth.TranslateError(err)
				return
			}
			messages[i] = convertMessage(full)
		}(i, msg.Id)
	}
	wg.Wait()

	page := &syncdomain.MessagePage{NextPageToken: resp.NextPageToken}
	for i, msg := range messages {
		if errs[i] != nil {
			return nil, errs[i]
		}
		page.Messages = append(page.Messages, msg)
	}
	return page, nil
}

func convertMessage(msg *gmail.Message) *syncdomain.Message {
	headers := make(map[string]string)
	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			headers[header.Name] = header.Value
		}
	}

	out := &syncdomain.Message{
		ID:      msg.Id,
		Subject: headers["Subject"],
		From:    parseAddress(headers["From"]),
		To:      parseAddressList(headers["To"]),
		Cc:      parseAddressList(headers["Cc"]),
		Headers: headers,
	}

	if msg.InternalDate > 0 {
		out.Date = time.UnixMilli(msg.InternalDate)
	} else if parsed, err := mail.ParseDate(headers["Date"]); err == nil {
		out.Date = parsed
	}

	for _, label := range msg.LabelIds {
		if label == "SENT" {
			out.Sent = true
			break
		}
	}

	return out
}

func parseAddress(raw string) syncdomain.Address {
	if raw == "" {
		return syncdomain.Address{}
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return syncdomain.Address{Email: raw}
	}
	return syncdomain.Address{Email: addr.Address, Name: addr.Name}
}

func parseAddressList(raw string) []syncdomain.Address {
	if raw == "" {
		return nil
	}
	addrs, err := mail.ParseAddressList(raw)
	if err != nil {
		return []syncdomain.Address{{Email: raw}}
	}
	out := make([]syncdomain.Address, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, syncdomain.Address{Email: addr.Address, Name: addr.Name})
	}
	return out
}
