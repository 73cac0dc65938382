package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"
)

// EmailService sends notification emails via Amazon SES.
// When no sender address is configured the service is disabled and every
// send becomes a logged no-op, so callers never need to branch.
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	appBaseURL string
	enabled    bool
	logger     *logrus.Logger
}

// NewEmailService creates a new email service
func NewEmailService(awsRegion, fromEmail, appBaseURL string, logger *logrus.Logger) (*EmailService, error) {
	if fromEmail == "" {
		logger.Info("email service disabled: EMAIL_SENDER not configured")
		return &EmailService{enabled: false, logger: logger}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"from":   fromEmail,
		"region": awsRegion,
	}).Info("email service enabled")

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		appBaseURL: appBaseURL,
		enabled:    true,
		logger:     logger,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendApprovalEmail tells a parent their signup request was approved
func (s *EmailService) SendApprovalEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		s.logger.WithField("to", toEmail).Debug("skipping approval email: service disabled")
		return nil
	}

	subject := "Your account has been approved"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1>Account Approved</h1>
		<p>Hi %s,</p>
		<p>Your parent account has been reviewed and approved. You can now sign in and follow your child's daily progress.</p>
		<p><a href="%s/login">Sign in</a></p>
		<p style="font-size: 12px; color: #666;">This is an automated email. Please do not reply.</p>
	</div>
</body>
</html>
`, toName, s.appBaseURL)

	textBody := fmt.Sprintf(`Hi %s,

Your parent account has been reviewed and approved. You can now sign in and follow your child's daily progress.

Sign in: %s/login

---
This is an automated email. Please do not reply.
`, toName, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendActivationCodeEmail delivers a child's one-time activation code
func (s *EmailService) SendActivationCodeEmail(ctx context.Context, toEmail, childName, code string, expiresAt time.Time) error {
	if !s.enabled {
		s.logger.WithField("to", toEmail).Debug("skipping activation email: service disabled")
		return nil
	}

	subject := "Your account activation code"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1>Activation Code</h1>
		<p>An account has been created for %s.</p>
		<p>Use this code to activate the account and choose a password:</p>
		<p style="font-size: 24px; font-weight: bold; letter-spacing: 2px;">%s</p>
		<p>The code expires on %s.</p>
		<p><a href="%s/activate">Activate account</a></p>
		<p style="font-size: 12px; color: #666;">This is an automated email. Please do not reply.</p>
	</div>
</body>
</html>
`, childName, code, expiresAt.Format("2 January 2006"), s.appBaseURL)

	textBody := fmt.Sprintf(`An account has been created for %s.

Use this code to activate the account and choose a password:

    %s

The code expires on %s.

Activate: %s/activate

---
This is an automated email. Please do not reply.
`, childName, code, expiresAt.Format("2 January 2006"), s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromEmail),
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

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	s.logger.WithFields(logrus.Fields{
		"to":      toEmail,
		"subject": subject,
	}).Info("email sent")
	return nil
}
