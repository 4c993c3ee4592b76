package services

import (
	"context"
	"fmt"
	"time"

	"github.com/brightboard/brightboard-server/src/templates"
	"github.com/mailgun/mailgun-go/v4"
)

// EmailService handles transactional email sending via Mailgun
type EmailService struct {
	mg        *mailgun.MailgunImpl
	fromEmail string
	fromName  string
	domain    string
}

// NewEmailService creates a new email service with Mailgun configuration
func NewEmailService(domain, apiKey, fromEmail, fromName string) *EmailService {
	mg := mailgun.NewMailgun(domain, apiKey)
	mg.SetAPIBase(mailgun.APIBaseEU) // Use EU endpoint for GDPR compliance

	return &EmailService{
		mg:        mg,
		fromEmail: fromEmail,
		fromName:  fromName,
		domain:    domain,
	}
}

// getDefaultEmailConfig returns default email configuration as fallback
func getDefaultEmailConfig() *templates.EmailConfig {
	config := &templates.EmailConfig{}
	config.Branding.Name = "BrightBoard"
	config.Branding.Tagline = "Project boards for small teams"
	config.Branding.Website = "https://brightboard.app"
	config.Branding.BoardURL = "https://brightboard.app/board"
	config.Branding.SupportURL = "https://brightboard.app/support"
	config.Design.PrimaryColor = "#2563EB"
	config.Design.TextColor = "#0a0a0a"
	config.Design.MutedColor = "#777777"
	config.Design.WarningBg = "#fef3c7"
	config.Design.WarningBorder = "#f59e0b"
	config.Design.CodeBg = "#f5f5f5"
	config.Design.BorderColor = "#e5e5e5"
	config.Subjects.ResetCode = "Your password reset code"
	config.Subjects.Welcome = "Welcome to BrightBoard"
	config.Subjects.AccountLocked = "Your account has been locked"
	config.ResetCode.Intro = "Use the code below to reset your BrightBoard password."
	config.ResetCode.ExpiryWarning = "This code expires in %d minutes."
	config.ResetCode.IgnoreText = "If you did not request a reset, you can safely ignore this email."
	config.Welcome.Intro = "Your account is ready. Jump into your first board and invite your team."
	config.Welcome.ButtonText = "Open your board"
	config.AccountLocked.Intro = "An administrator has locked your BrightBoard account."
	config.AccountLocked.SupportText = "If you believe this is a mistake, contact support."
	return config
}

func greetingFor(name string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s,", name)
}

func (s *EmailService) send(ctx context.Context, toEmail, subject, textBody, htmlBody string) error {
	message := s.mg.NewMessage(
		fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail),
		subject,
		textBody,
		toEmail,
	)
	message.SetHtml(htmlBody)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, time.Second*30)
	defer cancel()

	_, _, err := s.mg.Send(ctxWithTimeout, message)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	return nil
}

// SendResetCodeEmail sends a password reset code
func (s *EmailService) SendResetCodeEmail(ctx context.Context, toEmail, toName, code string, expiryMinutes int) error {
	config, err := templates.LoadEmailConfig()
	if err != nil {
		config = getDefaultEmailConfig()
	}

	data := templates.ResetCodeData{
		Name:          toName,
		Code:          code,
		ExpiryMinutes: expiryMinutes,
		BrandName:     config.Branding.Name,
		Tagline:       config.Branding.Tagline,
		Website:       config.Branding.Website,
		Greeting:      greetingFor(toName),
		Intro:         config.ResetCode.Intro,
		ExpiryWarning: fmt.Sprintf(config.ResetCode.ExpiryWarning, expiryMinutes),
		IgnoreText:    config.ResetCode.IgnoreText,
		PrimaryColor:  config.Design.PrimaryColor,
		TextColor:     config.Design.TextColor,
		MutedColor:    config.Design.MutedColor,
		WarningBg:     config.Design.WarningBg,
		WarningBorder: config.Design.WarningBorder,
		CodeBg:        config.Design.CodeBg,
		BorderColor:   config.Design.BorderColor,
	}

	htmlBody, err := templates.RenderResetCodeHTML(data)
	if err != nil {
		return err
	}
	textBody, err := templates.RenderResetCodeText(data)
	if err != nil {
		return err
	}

	return s.send(ctx, toEmail, config.Subjects.ResetCode, textBody, htmlBody)
}

// SendWelcomeEmail sends a welcome email to new users
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	config, err := templates.LoadEmailConfig()
	if err != nil {
		config = getDefaultEmailConfig()
	}

	data := templates.WelcomeData{
		Name:         toName,
		BrandName:    config.Branding.Name,
		Tagline:      config.Branding.Tagline,
		BoardURL:     config.Branding.BoardURL,
		Greeting:     greetingFor(toName),
		Intro:        config.Welcome.Intro,
		ButtonText:   config.Welcome.ButtonText,
		PrimaryColor: config.Design.PrimaryColor,
		TextColor:    config.Design.TextColor,
		MutedColor:   config.Design.MutedColor,
		BorderColor:  config.Design.BorderColor,
	}

	htmlBody, err := templates.RenderWelcomeHTML(data)
	if err != nil {
		return err
	}
	textBody, err := templates.RenderWelcomeText(data)
	if err != nil {
		return err
	}

	return s.send(ctx, toEmail, config.Subjects.Welcome, textBody, htmlBody)
}

// SendAccountLockedEmail notifies a user that an administrator locked
// their account. until is empty for permanent locks.
func (s *EmailService) SendAccountLockedEmail(ctx context.Context, toEmail, toName, reason, until string) error {
	config, err := templates.LoadEmailConfig()
	if err != nil {
		config = getDefaultEmailConfig()
	}

	data := templates.AccountLockedData{
		Name:          toName,
		Reason:        reason,
		Permanent:     until == "",
		Until:         until,
		BrandName:     config.Branding.Name,
		SupportURL:    config.Branding.SupportURL,
		Greeting:      greetingFor(toName),
		Intro:         config.AccountLocked.Intro,
		SupportText:   config.AccountLocked.SupportText,
		PrimaryColor:  config.Design.PrimaryColor,
		TextColor:     config.Design.TextColor,
		MutedColor:    config.Design.MutedColor,
		WarningBg:     config.Design.WarningBg,
		WarningBorder: config.Design.WarningBorder,
		BorderColor:   config.Design.BorderColor,
	}

	htmlBody, err := templates.RenderAccountLockedHTML(data)
	if err != nil {
		return err
	}
	textBody, err := templates.RenderAccountLockedText(data)
	if err != nil {
		return err
	}

	return s.send(ctx, toEmail, config.Subjects.AccountLocked, textBody, htmlBody)
}
