package mailing

import (
	"fmt"
	"html"
	"strconv"

	"recipe-share/internal/utils"

	"gopkg.in/gomail.v2"
)

type MailConfig struct {
	AppURL       string
	SMTPHost     string
	SMTPPort     string
	SMTPSender   string
	SMTPEmail    string
	SMTPPassword string
}

func LoadMailConfig() MailConfig {
	return MailConfig{
		AppURL:       utils.GetConfig("APP_URL"),
		SMTPHost:     utils.GetConfig("SMTP_HOST"),
		SMTPPort:     utils.GetConfig("SMTP_PORT"),
		SMTPSender:   utils.GetConfig("SMTP_SENDER_NAME"),
		SMTPEmail:    utils.GetConfig("SMTP_AUTH_EMAIL"),
		SMTPPassword: utils.GetConfig("SMTP_AUTH_PASSWORD"),
	}
}

type (
	Mailer interface {
		SendMail(toEmail string, subject string, body string) error
	}

	smtpMailer struct {
		config MailConfig
		dialer *gomail.Dialer
	}
)

func NewMailer(config MailConfig) (Mailer, error) {
	port, err := strconv.Atoi(config.SMTPPort)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", config.SMTPPort, err)
	}
	dialer := gomail.NewDialer(
		config.SMTPHost,
		port,
		config.SMTPEmail,
		config.SMTPPassword,
	)
	return &smtpMailer{config: config, dialer: dialer}, nil
}

func (m *smtpMailer) SendMail(toEmail string, subject string, body string) error {
	mailer := gomail.NewMessage()
	mailer.SetAddressHeader("From", m.config.SMTPEmail, m.config.SMTPSender)
	mailer.SetHeader("To", toEmail)
	mailer.SetHeader("Subject", subject)
	mailer.SetBody("text/html", body)

	return m.dialer.DialAndSend(mailer)
}

func VerificationEmail(name, link string) (string, string) {
	return "Verify your email",
		fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for signing up. Confirm your email address by opening the link below:</p>
<p><a href="%s">Verify email</a></p>
<p>The link expires in 24 hours.</p>`, html.EscapeString(name), html.EscapeString(link))
}

func ResetPasswordEmail(name, link string) (string, string) {
	return "Reset your password",
		fmt.Sprintf(`<p>Hi %s,</p>
<p>Someone asked to reset the password for your account. If it was you, open the link below:</p>
<p><a href="%s">Reset password</a></p>
<p>The link expires in 30 minutes. If you did not ask for this, ignore this email.</p>`, html.EscapeString(name), html.EscapeString(link))
}
