package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

const emailLayout = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #c0392b; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #fdf6ec; padding: 30px; border-radius: 0 0 5px 5px; }
		.code { font-size: 22px; font-weight: bold; letter-spacing: 1px; text-align: center; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header"><h1>%s</h1></div>
		<div class="content">%s</div>
		<div class="footer"><p>This is an automated email from Palabras. Please do not reply.</p></div>
	</div>
</body>
</html>
`

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service that logs and skips every send.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendStreakReminder nudges a learner whose streak ends unless they add a
// word today
func (s *EmailService) SendStreakReminder(ctx context.Context, toEmail, toName string, streakDays int) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): streak reminder to %s", toEmail)
		return nil
	}

	subject := fmt.Sprintf("¡No pierdas tu racha de %d días!", streakDays)
	htmlBody := fmt.Sprintf(emailLayout, "¡Hola!", fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>You have practised Spanish %d days in a row. Add a word today to keep your streak alive.</p>
			<p><a href="%s">Open your word bank</a></p>`,
		html.EscapeString(toName), streakDays, html.EscapeString(s.appBaseURL)))

	textBody := fmt.Sprintf(`Hi %s,

You have practised Spanish %d days in a row. Add a word today to keep your streak alive.

Open your word bank: %s
`, toName, streakDays, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendTutorInvite sends a student's invite code to a prospective tutor
func (s *EmailService) SendTutorInvite(ctx context.Context, toEmail, studentName, code string, expiresAt time.Time) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): tutor invite to %s", toEmail)
		return nil
	}

	expires := expiresAt.Format("2 Jan 2006 15:04 MST")
	subject := fmt.Sprintf("%s invited you to tutor their Spanish", studentName)
	htmlBody := fmt.Sprintf(emailLayout, "Tutor invitation", fmt.Sprintf(`
			<p>%s would like you to help manage their Spanish word bank.</p>
			<p>Sign in to Palabras and enter this code:</p>
			<p class="code">%s</p>
			<p><strong>The code expires on %s.</strong></p>`,
		html.EscapeString(studentName), html.EscapeString(code), expires))

	textBody := fmt.Sprintf(`%s would like you to help manage their Spanish word bank.

Sign in to Palabras at %s and enter this code:

    %s

The code expires on %s.
`, studentName, s.appBaseURL, code, expires)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
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

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
