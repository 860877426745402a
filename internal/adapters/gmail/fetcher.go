// Package gmail fetches a user's recent messages from the Gmail API.
package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

// fetchWorkers bounds concurrent Users.Messages.Get calls per sync.
const fetchWorkers = 8

// Config holds the OAuth client used to refresh stored Gmail tokens.
type Config struct {
	ClientID     string
	ClientSecret string
	// TokenDir holds one token.json per user, written when the user connects
	// their mailbox.
	TokenDir string
}

type fetcher struct {
	cfg Config
}

// NewFetcher returns a MailboxFetcher backed by the Gmail API. Each user's
// OAuth token is read from TokenDir/<userID>/token.json.
func NewFetcher(cfg Config) domain.MailboxFetcher {
	return &fetcher{cfg: cfg}
}

func (f *fetcher) service(ctx context.Context, userID string) (*gmailv1.Service, error) {
	tokPath := filepath.Join(f.cfg.TokenDir, userID, "token.json")
	b, err := os.ReadFile(tokPath)
	if err != nil {
		return nil, fmt.Errorf("mailbox not connected for user %s: %w", userID, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse stored token: %w", err)
	}
	oc := &oauth2.Config{
		ClientID:     f.cfg.ClientID,
		ClientSecret: f.cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		Scopes: []string{gmailv1.GmailReadonlyScope},
	}
	svc, err := gmailv1.NewService(ctx, option.WithHTTPClient(oc.Client(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

// FetchRecent lists up to max INBOX message IDs and fetches their full bodies
// with a bounded worker pool.
func (f *fetcher) FetchRecent(ctx context.Context, userID string, max int) ([]*domain.MailboxMessage, error) {
	svc, err := f.service(ctx, userID)
	if err != nil {
		return nil, err
	}

	const user = "me"
	var ids []string
	pageToken := ""
	for len(ids) < max {
		call := svc.Users.Messages.List(user).LabelIds("INBOX").MaxResults(int64(min(max-len(ids), 500)))
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	jobs := make(chan string, len(ids))
	results := make(chan *domain.MailboxMessage, len(ids))
	errs := make(chan error, len(ids))

	var wg sync.WaitGroup
	wg.Add(fetchWorkers)
	for i := 0; i < fetchWorkers; i++ {
		go func() {
			defer wg.Done()
			for id := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				msg, err := svc.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
				if err != nil {
					errs <- fmt.Errorf("failed to fetch message %s: %w", id, err)
					continue
				}
				results <- toMailboxMessage(msg)
			}
		}()
	}
	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	close(results)
	close(errs)

	msgs := make([]*domain.MailboxMessage, 0, len(ids))
	for m := range results {
		msgs = append(msgs, m)
	}
	// Partial failures don't fail the sync; surface the first error only when
	// nothing at all was fetched.
	if len(msgs) == 0 {
		if err := <-errs; err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

func toMailboxMessage(msg *gmailv1.Message) *domain.MailboxMessage {
	out := &domain.MailboxMessage{
		MessageID: msg.Id,
		ThreadID:  msg.ThreadId,
		Labels:    msg.LabelIds,
	}
	if msg.InternalDate > 0 {
		out.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	}
	if msg.Payload == nil {
		return out
	}
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			out.Sender = normalizeAddress(h.Value)
		case "subject":
			out.Subject = h.Value
		case "to", "cc":
			for _, addr := range strings.Split(h.Value, ",") {
				if a := normalizeAddress(addr); a != "" {
					out.Recipients = append(out.Recipients, a)
				}
			}
		}
	}
	out.Content = extractPlainText(msg.Payload)
	out.HTMLContent = extractHTML(msg.Payload)
	if out.Content == "" && out.HTMLContent != "" {
		out.Content = stripHTMLTags(out.HTMLContent)
	}
	out.HasAttachments = hasAttachments(msg.Payload)
	return out
}

// normalizeAddress extracts the bare address from forms like "Name <a@b.c>".
func normalizeAddress(s string) string {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.ToLower(addr.Address)
}

func hasAttachments(part *gmailv1.MessagePart) bool {
	if part == nil {
		return false
	}
	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		return true
	}
	for _, sub := range part.Parts {
		if hasAttachments(sub) {
			return true
		}
	}
	return false
}
