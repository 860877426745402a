package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for email operations.
var (
	ErrEmailNotFound = errors.New("email not found")
)

// Importance classification values for an email.
const (
	ImportanceUnclassified = "unclassified"
	ImportanceImportant    = "important"
	ImportanceNotImportant = "not_important"
)

// Email is a stored message belonging to a user's mailbox.
// swagger:model Email
type Email struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	MessageID            string    `json:"message_id"`
	Subject              string    `json:"subject"`
	Sender               string    `json:"sender"`
	Recipients           []string  `json:"recipients"`
	Content              string    `json:"content"`
	HTMLContent          string    `json:"html_content,omitempty"`
	ReceivedAt           time.Time `json:"received_at"`
	IndexedAt            time.Time `json:"indexed_at"`
	Importance           string    `json:"importance"`
	ImportanceConfidence float64   `json:"importance_confidence"`
	UserLabeled          bool      `json:"user_labeled"`
	VectorID             string    `json:"vector_id,omitempty"`
	HasAttachments       bool      `json:"has_attachments"`
	ThreadID             string    `json:"thread_id,omitempty"`
	Labels               []string  `json:"labels,omitempty"`
}

// EmailFilter narrows email list queries.
type EmailFilter struct {
	// Importance filters by classification value; empty means all.
	Importance string
}

// EmailRepository defines the interface for email storage.
type EmailRepository interface {
	Create(ctx context.Context, email *Email) error
	GetByID(ctx context.Context, userID, id string) (*Email, error)
	GetByIDs(ctx context.Context, userID string, ids []string) ([]*Email, error)
	// List returns one page of the user's emails ordered by received_at
	// descending, plus the total count matching the filter.
	List(ctx context.Context, userID string, filter EmailFilter, p PaginationParams) ([]*Email, int, error)
	// ExistingMessageIDs reports which of the given provider message IDs are
	// already stored for the user.
	ExistingMessageIDs(ctx context.Context, userID string, messageIDs []string) (map[string]bool, error)
	// SetImportance records a classification outcome. userLabeled marks the
	// value as a direct user label rather than a model prediction; a
	// prediction never overwrites an email the user already labeled.
	SetImportance(ctx context.Context, userID, id, importance string, confidence float64, userLabeled bool) error
}

// MailboxMessage is a message fetched from the user's mail provider.
type MailboxMessage struct {
	MessageID      string
	ThreadID       string
	Subject        string
	Sender         string
	Recipients     []string
	Content        string
	HTMLContent    string
	ReceivedAt     time.Time
	HasAttachments bool
	Labels         []string
}

// MailboxFetcher retrieves recent messages from the user's mail provider.
type MailboxFetcher interface {
	FetchRecent(ctx context.Context, userID string, max int) ([]*MailboxMessage, error)
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeMessageEmailData holds data for the welcome email sent on first login.
type WelcomeMessageEmailData struct {
	Email string
	Name  string
}

// NotificationService defines the contract for sending domain-level emails.
type NotificationService interface {
	SendWelcomeMessage(ctx context.Context, data *WelcomeMessageEmailData) error
}

// EmailPage is one page of a user's mailbox listing.
type EmailPage struct {
	Emails []*Email
	Total  int
}

// SyncResult summarizes a mailbox sync run.
type SyncResult struct {
	Fetched int `json:"fetched"`
	Stored  int `json:"stored"`
	Skipped int `json:"skipped"`
}

// EmailService defines the business logic for browsing and syncing email.
type EmailService interface {
	List(ctx context.Context, userID string, filter EmailFilter, p PaginationParams) (*EmailPage, error)
	// Get returns one email with its HTML content sanitized for display.
	Get(ctx context.Context, userID, id string) (*Email, error)
	// Sync pulls recent messages from the user's mailbox and stores unseen ones.
	Sync(ctx context.Context, userID string, max int) (*SyncResult, error)
}

// HTMLSanitizer strips unsafe markup from untrusted email HTML before display.
type HTMLSanitizer interface {
	Sanitize(html string) string
}
