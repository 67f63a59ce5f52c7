package imapmail

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"time"

	syncdomain "rolodex-backend/internal/sync/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/charset"
)

func init() {
	// Decode non-UTF8 headers from older mail clients.
	imap.CharsetReader = charset.Reader
}

// classifierHeaders are the raw headers fetched alongside the envelope for
// the automated-sender classifier.
var classifierHeaders = []string{"List-Unsubscribe", "Precedence", "Auto-Submitted"}

// sentMailboxNames are tried in order when the server does not advertise a
// \Sent special-use mailbox.
var sentMailboxNames = []string{"Sent", "Sent Items", "Sent Messages", "INBOX.Sent"}

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// MessageSource connects to the IMAP server and returns a paginated view
// over the inbox and the sent mailbox. The returned source holds the
// connection; callers should close it when the sync run is done.
func (s *Service) MessageSource(ctx context.Context, server string, port int, email, password string) (*MessageSource, error) {
	cli, err := client.DialTLS(fmt.Sprintf("%s:%d", server, port), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to IMAP server: %v", err)
	}

	if err := cli.Login(email, password); err != nil {
		cli.Logout()
		return nil, syncdomain.ErrGrantRevoked
	}

	mailboxes := []string{"INBOX"}
	if sent := findSentMailbox(cli); sent != "" {
		mailboxes = append(mailboxes, sent)
	}

	return &MessageSource{cli: cli, mailboxes: mailboxes}, nil
}

type MessageSource struct {
	cli       *client.Client
	mailboxes []string
}

func (m *MessageSource) Close() error {
	return m.cli.Logout()
}

// ListMessages pages through the inbox first, then the sent mailbox. The
// page token encodes the mailbox index and the offset into its UID listing,
// so each call is self-contained.
func (m *MessageSource) ListMessages(ctx context.Context, after *time.Time, pageToken string, pageSize int64) (*syncdomain.MessagePage, error) {
	mailboxIdx, offset, err := parsePageToken(pageToken)
	if err != nil {
		return nil, err
	}
	if mailboxIdx >= len(m.mailboxes) {
		return &syncdomain.MessagePage{}, nil
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	mailbox := m.mailboxes[mailboxIdx]
	if _, err := m.cli.Select(mailbox, true); err != nil {
		return nil, fmt.Errorf("unable to select %s: %v", mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	if after != nil {
		criteria.Since = after.Truncate(24 * time.Hour)
	}
	uids, err := m.cli.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search in %s failed: %v", mailbox, err)
	}

	// Newest first, like the other providers.
	sort.Slice(uids, func(i, j int) bool { return uids[i] > uids[j] })

	end := offset + int(pageSize)
	if end > len(uids) {
		end = len(uids)
	}

	page := &syncdomain.MessagePage{}
	if offset < end {
		messages, err := m.fetch(mailbox, uids[offset:end], after)
		if err != nil {
			return nil, err
		}
		page.Messages = messages
	}

	switch {
	case end < len(uids):
		page.NextPageToken = fmt.Sprintf("%d:%d", mailboxIdx, end)
	case mailboxIdx+1 < len(m.mailboxes):
		page.NextPageToken = fmt.Sprintf("%d:0", mailboxIdx+1)
	}
	return page, nil
}

func (m *MessageSource) fetch(mailbox string, uids []uint32, after *time.Time) ([]*syncdomain.Message, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{
			Specifier: imap.HeaderSpecifier,
			Fields:    classifierHeaders,
		},
		Peek: true,
	}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	ch := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- m.cli.UidFetch(seqSet, items, ch)
	}()

	sent := mailbox != "INBOX"
	var messages []*syncdomain.Message
	for msg := range ch {
		converted := convertMessage(mailbox, msg, section, sent)
		if converted == nil {
			continue
		}
		// SINCE only has day granularity, re-check the exact bound.
		if after != nil && converted.Date.Before(*after) {
			continue
		}
		messages = append(messages, converted)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch in %s failed: %v", mailbox, err)
	}
	return messages, nil
}

func convertMessage(mailbox string, msg *imap.Message, section *imap.BodySectionName, sent bool) *syncdomain.Message {
	if msg.Envelope == nil {
		return nil
	}

	headers := make(map[string]string)
	if body := msg.GetBody(section); body != nil {
		if parsed, err := mail.ReadMessage(body); err == nil {
			for _, name := range classifierHeaders {
				if value := parsed.Header.Get(name); value != "" {
					headers[name] = value
				}
			}
		}
	}
	headers["Subject"] = msg.Envelope.Subject

	out := &syncdomain.Message{
		ID:      fmt.Sprintf("%s/%d", mailbox, msg.Uid),
		Subject: msg.Envelope.Subject,
		To:      convertAddresses(msg.Envelope.To),
		Cc:      convertAddresses(msg.Envelope.Cc),
		Date:    msg.Envelope.Date,
		Sent:    sent,
		Headers: headers,
	}
	if from := convertAddresses(msg.Envelope.From); len(from) > 0 {
		out.From = from[0]
	}
	return out
}

func convertAddresses(addrs []*imap.Address) []syncdomain.Address {
	var out []syncdomain.Address
	for _, addr := range addrs {
		if addr.MailboxName == "" || addr.HostName == "" {
			continue
		}
		out = append(out, syncdomain.Address{
			Email: addr.MailboxName + "@" + addr.HostName,
			Name:  addr.PersonalName,
		})
	}
	return out
}

func findSentMailbox(cli *client.Client) string {
	ch := make(chan *imap.MailboxInfo, 20)
	done := make(chan error, 1)
	go func() {
		done <- cli.List("", "*", ch)
	}()

	names := make(map[string]bool)
	var bySpecialUse string
	for info := range ch {
		names[info.Name] = true
		for _, attr := range info.Attributes {
			if strings.EqualFold(attr, "\\Sent") {
				bySpecialUse = info.Name
			}
		}
	}
	if err := <-done; err != nil {
		return ""
	}

	if bySpecialUse != "" {
		return bySpecialUse
	}
	for _, name := range sentMailboxNames {
		if names[name] {
			return name
		}
	}
	return ""
}

func parsePageToken(token string) (mailboxIdx, offset int, err error) {
	if token == "" {
		return 0, 0, nil
	}
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed page token %q", token)
	}
	mailboxIdx, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed page token %q", token)
	}
	offset, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed page token %q", token)
	}
	return mailboxIdx, offset, nil
}
