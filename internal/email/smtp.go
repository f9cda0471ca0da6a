// Package email delivers operator notifications over SMTP.
package email

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"brokerage_backend/platform/config"
)

// BatchReport is the summary mailed after an outreach batch stops.
type BatchReport struct {
	BatchID  string
	State    string
	Sent     int
	Failed   int
	Excluded int
	Errors   []string
}

type Sender interface {
	SendBatchReport(ctx context.Context, toEmail string, report BatchReport) error
}

// SMTPSender delivers mail through a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromEmail: cfg.GetSMTPFrom(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat("Outreach", s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) SendBatchReport(ctx context.Context, toEmail string, report BatchReport) error {
	subject, content, err := renderBatchReport(report)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func renderBatchReport(report BatchReport) (string, string, error) {
	errs := report.Errors
	more := 0
	if len(errs) > maxReportErrors {
		more = len(errs) - maxReportErrors
		errs = errs[:maxReportErrors]
	}
	content, err := renderEmailTemplate("batch_report.html", batchReportEmailData{
		baseEmailData: baseEmailData{
			Title:   "Outreach batch report",
			Heading: "Outreach batch " + report.State,
		},
		BatchID:    report.BatchID,
		State:      report.State,
		Sent:       report.Sent,
		Failed:     report.Failed,
		Excluded:   report.Excluded,
		Errors:     errs,
		MoreErrors: more,
	})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf(subjectBatchReportFmt, report.State, report.Sent, report.Failed), content, nil
}
