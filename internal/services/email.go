package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

// defaultSyncMax bounds how many provider messages one sync run examines.
const defaultSyncMax = 100

type emailService struct {
	emailRepo domain.EmailRepository
	prefRepo  domain.PreferenceRepository
	fetcher   domain.MailboxFetcher
	sanitizer domain.HTMLSanitizer
	logger    *slog.Logger
}

// NewEmailService creates an EmailService over the given storage and mailbox
// ports. fetcher may be nil; Sync then reports an error.
func NewEmailService(
	emailRepo domain.EmailRepository,
	prefRepo domain.PreferenceRepository,
	fetcher domain.MailboxFetcher,
	sanitizer domain.HTMLSanitizer,
	logger *slog.Logger,
) domain.EmailService {
	return &emailService{
		emailRepo: emailRepo,
		prefRepo:  prefRepo,
		fetcher:   fetcher,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

func (s *emailService) List(ctx context.Context, userID string, filter domain.EmailFilter, p domain.PaginationParams) (*domain.EmailPage, error) {
	if p.PageSize == 0 {
		prefs, err := s.prefRepo.Get(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load preferences: %w", err)
		}
		p.PageSize = prefs.ItemsPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}
	emails, total, err := s.emailRepo.List(ctx, userID, filter, p)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	return &domain.EmailPage{Emails: emails, Total: total}, nil
}

func (s *emailService) Get(ctx context.Context, userID, id string) (*domain.Email, error) {
	email, err := s.emailRepo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrEmailNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	if email.HTMLContent != "" {
		email.HTMLContent = s.sanitizer.Sanitize(email.HTMLContent)
	}
	return email, nil
}

func (s *emailService) Sync(ctx context.Context, userID string, max int) (*domain.SyncResult, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("mailbox sync is not configured")
	}
	if max <= 0 {
		max = defaultSyncMax
	}
	messages, err := s.fetcher.FetchRecent(ctx, userID, max)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mailbox: %w", err)
	}

	messageIDs := make([]string, len(messages))
	for i, m := range messages {
		messageIDs[i] = m.MessageID
	}
	existing, err := s.emailRepo.ExistingMessageIDs(ctx, userID, messageIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check stored messages: %w", err)
	}

	result := &domain.SyncResult{Fetched: len(messages)}
	now := time.Now()
	for _, m := range messages {
		if existing[m.MessageID] {
			result.Skipped++
			continue
		}
		email := &domain.Email{
			UserID:         userID,
			MessageID:      m.MessageID,
			Subject:        m.Subject,
			Sender:         m.Sender,
			Recipients:     m.Recipients,
			Content:        m.Content,
			HTMLContent:    m.HTMLContent,
			ReceivedAt:     m.ReceivedAt,
			IndexedAt:      now,
			Importance:     domain.ImportanceUnclassified,
			HasAttachments: m.HasAttachments,
			ThreadID:       m.ThreadID,
			Labels:         m.Labels,
		}
		if err := s.emailRepo.Create(ctx, email); err != nil {
			s.logger.Warn("failed to store synced message", "user_id", userID, "message_id", m.MessageID, "error", err)
			continue
		}
		result.Stored++
	}
	s.logger.Info("mailbox sync complete", "user_id", userID,
		"fetched", result.Fetched, "stored", result.Stored, "skipped", result.Skipped)
	return result, nil
}
