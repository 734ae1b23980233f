package services

import (
	"context"
	"fmt"
	"strings"

	"tenderwatch/internal/core"
	"tenderwatch/internal/features/tenders/models"
)

// Notifier receives the batch of genuinely new records after a run.
// Notification failures are logged by the scheduler and never fail a run.
type Notifier interface {
	Notify(ctx context.Context, sourceName string, records []models.Record) error
}

// LogNotifier writes new-record batches to the log only
type LogNotifier struct {
	logger *core.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *core.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier
func (n *LogNotifier) Notify(ctx context.Context, sourceName string, records []models.Record) error {
	for _, record := range records {
		n.logger.Info("New tender",
			"source_name", sourceName,
			"name", record.Name,
			"posted", record.PostedDate,
			"closing", record.ClosingDate,
		)
	}
	return nil
}

// mailSender is the slice of the mail client the notifier needs
type mailSender interface {
	Send(recipient, subject, textBody string) error
}

// MailNotifier sends one mail per run summarizing the new records
type MailNotifier struct {
	mailer    mailSender
	recipient string
	logger    *core.Logger
}

// NewMailNotifier creates a mail-backed notifier
func NewMailNotifier(mailer mailSender, recipient string, logger *core.Logger) *MailNotifier {
	return &MailNotifier{
		mailer:    mailer,
		recipient: recipient,
		logger:    logger,
	}
}

// Notify implements Notifier
func (n *MailNotifier) Notify(ctx context.Context, sourceName string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	subject := fmt.Sprintf("%d new tenders from %s", len(records), sourceName)

	var body strings.Builder
	fmt.Fprintf(&body, "New tenders found on %s:\n\n", sourceName)
	for _, record := range records {
		fmt.Fprintf(&body, "- %s (posted %s", record.Name, record.PostedDate)
		if record.ClosingDate != "" {
			fmt.Fprintf(&body, ", closes %s", record.ClosingDate)
		}
		body.WriteString(")\n")
		for _, link := range record.DownloadLinks {
			fmt.Fprintf(&body, "    %s: %s\n", link.Text, link.URL)
		}
	}

	if err := n.mailer.Send(n.recipient, subject, body.String()); err != nil {
		return fmt.Errorf("failed to mail notification for %s: %w", sourceName, err)
	}

	n.logger.Info("Sent new-tender notification", "source_name", sourceName, "count", len(records))
	return nil
}
