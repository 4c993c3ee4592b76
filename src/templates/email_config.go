package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	textTemplate "text/template"

	"gopkg.in/yaml.v3"
)

//go:embed emails/*
var emailTemplates embed.FS

// EmailConfig holds email configuration from config.yaml
type EmailConfig struct {
	Branding struct {
		Name       string `yaml:"name"`
		Tagline    string `yaml:"tagline"`
		Website    string `yaml:"website"`
		BoardURL   string `yaml:"board_url"`
		SupportURL string `yaml:"support_url"`
	} `yaml:"branding"`

	Design struct {
		PrimaryColor  string `yaml:"primary_color"`
		TextColor     string `yaml:"text_color"`
		MutedColor    string `yaml:"muted_color"`
		Background    string `yaml:"background"`
		WarningBg     string `yaml:"warning_bg"`
		WarningBorder string `yaml:"warning_border"`
		CodeBg        string `yaml:"code_bg"`
		BorderColor   string `yaml:"border_color"`
	} `yaml:"design"`

	Subjects struct {
		ResetCode     string `yaml:"reset_code"`
		Welcome       string `yaml:"welcome"`
		AccountLocked string `yaml:"account_locked"`
	} `yaml:"subjects"`

	ResetCode struct {
		Intro         string `yaml:"intro"`
		ExpiryWarning string `yaml:"expiry_warning"`
		IgnoreText    string `yaml:"ignore_text"`
	} `yaml:"reset_code"`

	Welcome struct {
		Intro      string `yaml:"intro"`
		ButtonText string `yaml:"button_text"`
	} `yaml:"welcome"`

	AccountLocked struct {
		Intro       string `yaml:"intro"`
		SupportText string `yaml:"support_text"`
	} `yaml:"account_locked"`
}

// LoadEmailConfig loads email configuration from embedded config.yaml
func LoadEmailConfig() (*EmailConfig, error) {
	data, err := emailTemplates.ReadFile("emails/config.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read email config: %w", err)
	}

	var config EmailConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse email config: %w", err)
	}

	return &config, nil
}

// ResetCodeData holds data for the password reset email
type ResetCodeData struct {
	Name          string
	Code          string
	ExpiryMinutes int

	BrandName     string
	Tagline       string
	Website       string
	Greeting      string
	Intro         string
	ExpiryWarning string
	IgnoreText    string

	PrimaryColor  string
	TextColor     string
	MutedColor    string
	WarningBg     string
	WarningBorder string
	CodeBg        string
	BorderColor   string
}

// WelcomeData holds data for the welcome email
type WelcomeData struct {
	Name       string
	BrandName  string
	Tagline    string
	BoardURL   string
	Greeting   string
	Intro      string
	ButtonText string

	PrimaryColor string
	TextColor    string
	MutedColor   string
	BorderColor  string
}

// AccountLockedData holds data for the lock notification email
type AccountLockedData struct {
	Name        string
	Reason      string
	Permanent   bool
	Until       string
	BrandName   string
	SupportURL  string
	Greeting    string
	Intro       string
	SupportText string

	PrimaryColor  string
	TextColor     string
	MutedColor    string
	WarningBg     string
	WarningBorder string
	BorderColor   string
}

func renderHTML(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "emails/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderText(name string, data interface{}) (string, error) {
	tmpl, err := textTemplate.ParseFS(emailTemplates, "emails/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderResetCodeHTML renders the HTML body of the reset code email
func RenderResetCodeHTML(data ResetCodeData) (string, error) {
	return renderHTML("reset_code.html", data)
}

// RenderResetCodeText renders the plain text body of the reset code email
func RenderResetCodeText(data ResetCodeData) (string, error) {
	return renderText("reset_code.txt", data)
}

// RenderWelcomeHTML renders the HTML body of the welcome email
func RenderWelcomeHTML(data WelcomeData) (string, error) {
	return renderHTML("welcome.html", data)
}

// RenderWelcomeText renders the plain text body of the welcome email
func RenderWelcomeText(data WelcomeData) (string, error) {
	return renderText("welcome.txt", data)
}

// RenderAccountLockedHTML renders the HTML body of the lock notification
func RenderAccountLockedHTML(data AccountLockedData) (string, error) {
	return renderHTML("account_locked.html", data)
}

// RenderAccountLockedText renders the plain text body of the lock notification
func RenderAccountLockedText(data AccountLockedData) (string, error) {
	return renderText("account_locked.txt", data)
}
