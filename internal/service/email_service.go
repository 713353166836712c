package service

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"mathdrill/internal/logger"
	"mathdrill/internal/models"
)

// sesClient is the part of the SES client the email service calls
type sesClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailOptions configures outgoing mail
type EmailOptions struct {
	AWSRegion   string
	FromEmail   string
	FromName    string
	NotifyEmail string
	Debug       bool
}

// EmailService sends achievement notifications via Amazon SES
type EmailService struct {
	client    sesClient
	fromEmail string
	fromName  string
	notify    string
	enabled   bool
	debug     bool
	log       *logger.Logger
}

// NewEmailService creates a new email service. Without a sender and a
// recipient address the service is disabled and every send is a no-op.
func NewEmailService(ctx context.Context, opts EmailOptions, log *logger.Logger) (*EmailService, error) {
	log = log.With("component", "EmailService")
	if opts.FromEmail == "" || opts.NotifyEmail == "" {
		log.Info("Email service disabled: SES_FROM_EMAIL or NOTIFY_EMAIL not configured")
		return &EmailService{debug: opts.Debug, log: log}, nil
	}

	if opts.Debug {
		log.Debug("Initializing email service with AWS SES",
			"region", opts.AWSRegion, "from", opts.FromEmail, "fromName", opts.FromName, "notify", opts.NotifyEmail)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("Email service enabled", "from", opts.FromEmail, "region", opts.AWSRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), opts, log), nil
}

func newEmailService(client sesClient, opts EmailOptions, log *logger.Logger) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: opts.FromEmail,
		fromName:  opts.FromName,
		notify:    opts.NotifyEmail,
		enabled:   true,
		debug:     opts.Debug,
		log:       log,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// AchievementUnlocked emails the configured address about a new badge
func (s *EmailService) AchievementUnlocked(ctx context.Context, a models.Achievement) error {
	if !s.enabled {
		if s.debug {
			s.log.Debug("Skipping achievement email (service disabled)", "name", a.Name)
		}
		return nil
	}

	subject := fmt.Sprintf("Achievement unlocked: %s", a.Name)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #4a90e2; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>%s</h1>
		</div>
		<div class="content">
			<p>A new badge was earned in MathDrill.</p>
			<p><strong>%s</strong></p>
			<p>Unlocked %s.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from MathDrill. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(a.Name), html.EscapeString(a.Description), a.UnlockedDate.Format("January 2, 2006"))

	textBody := fmt.Sprintf(`A new badge was earned in MathDrill.

%s: %s
Unlocked %s.

---
This is an automated email from MathDrill. Please do not reply.
`, a.Name, a.Description, a.UnlockedDate.Format("January 2, 2006"))

	return s.sendEmail(ctx, s.notify, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		s.log.Debug("SES SendEmail succeeded", "messageId", *result.MessageId)
	}
	s.log.Info("Email sent", "to", toEmail, "subject", subject)
	return nil
}
