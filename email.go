package main

import (
	"context"
	"fmt"
	"log"
	"time"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// Notifier is told about every recorded outage
type Notifier interface {
	NotifyOutage(ctx context.Context, event OutageEvent, today, week StatisticsSummary) error
}

// EmailNotifier sends outage summaries through Brevo transactional email
type EmailNotifier struct {
	config   Email
	host     string
	location *time.Location
	client   *brevo.APIClient
}

func NewEmailNotifier(config Config) *EmailNotifier {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", config.Email.APIKey)

	return &EmailNotifier{
		config:   config.Email,
		host:     config.PingHost,
		location: config.Location(),
		client:   brevo.NewAPIClient(cfg),
	}
}

// NotifyOutage sends one email describing the outage that just ended
func (n *EmailNotifier) NotifyOutage(ctx context.Context, event OutageEvent, today, week StatisticsSummary) error {
	subject, body := outageMessage(n.host, event, today, week, n.location)

	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  "Internet Monitor",
			Email: n.config.From,
		},
		To: []brevo.SendSmtpEmailTo{
			{
				Email: n.config.To,
			},
		},
		Subject:     subject,
		HtmlContent: fmt.Sprintf("<pre>%s</pre>", body),
		TextContent: body,
	}

	_, _, err := n.client.TransactionalEmailsApi.SendTransacEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send email via Brevo: %w", err)
	}

	log.Printf("📧 Outage notification sent to %s", n.config.To)
	return nil
}

func outageMessage(host string, event OutageEvent, today, week StatisticsSummary, loc *time.Location) (string, string) {
	if loc == nil {
		loc = time.Local
	}
	duration := time.Duration(event.DurationSeconds) * time.Second
	ended := event.Start.Add(duration)

	subject := fmt.Sprintf("🟢 Internet Monitor: connection restored after %s", formatDuration(duration))
	body := fmt.Sprintf(`
Internet Monitor Recovery

Probe target: %s (%s)
Disconnected at: %s
Reconnected at: %s
Outage duration: %s

Today: %d disconnection(s), %s offline
This week: %d disconnection(s), %s offline
`, host, getTargetLabel(host),
		event.Start.In(loc).Format("2006-01-02 15:04:05"),
		ended.In(loc).Format("2006-01-02 15:04:05"),
		formatDuration(duration),
		today.Count, formatDuration(time.Duration(today.TotalSeconds)*time.Second),
		week.Count, formatDuration(time.Duration(week.TotalSeconds)*time.Second))

	return subject, body
}
