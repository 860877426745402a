package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

type notificationService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewNotificationService returns a NotificationService that uses the given
// Mailer and template renderer.
func NewNotificationService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.NotificationService {
	return &notificationService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendWelcomeMessage sends a welcome email using the "welcome" template and the given data.
func (s *notificationService) SendWelcomeMessage(ctx context.Context, data *domain.WelcomeMessageEmailData) error {
	if data == nil {
		return fmt.Errorf("welcome message data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("welcome", data)
	if err != nil {
		return fmt.Errorf("failed to render welcome template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	s.logger.Info("welcome email sent", "to", data.Email)
	return nil
}
