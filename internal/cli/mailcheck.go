package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hardikSrivastav/imp-mail-sub002/config"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/adapters/email"
)

const probeSubject = "impmailctl delivery probe"

// newMailcheckCmd creates the mailcheck command, which validates the mail
// delivery configuration and optionally sends a probe message.
func newMailcheckCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "mailcheck",
		Short: "Validate mail delivery configuration",
		Long: `Validates the mail delivery settings from the environment (.env is honored
outside production). With --to, builds the configured mailer and sends a
probe message to the given address.`,
		Example: `  # Check settings only
  impmailctl mailcheck

  # Check settings and send a probe
  impmailctl mailcheck --to ops@example.com`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMailcheck(cmd, to)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "send a probe message to this address")

	return cmd
}

func runMailcheck(cmd *cobra.Command, to string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mailerCfg := email.MailerConfig{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretKey,
		},
	}

	if missing := mailerCfg.Validate(); len(missing) > 0 {
		for _, m := range missing {
			cmd.PrintErrf("missing: %s\n", m)
		}
		return fmt.Errorf("mail configuration incomplete (provider %q)", cfg.MailProvider)
	}

	cmd.Printf("mail configuration ok (provider %q, from %q)\n", cfg.MailProvider, cfg.MailFromAddress)

	if to == "" {
		return nil
	}

	mailer, err := email.NewMailer(mailerCfg)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}

	body := "This is a delivery probe sent by impmailctl mailcheck."
	if err := mailer.Send(to, probeSubject, "<p>"+body+"</p>", body); err != nil {
		return fmt.Errorf("probe send failed: %w", err)
	}

	cmd.Printf("probe message sent to %s\n", to)
	return nil
}
