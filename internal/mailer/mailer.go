package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"depot-backend/internal/config"

	"gopkg.in/gomail.v2"
)

// Mailer delivers the one-time reset code to a recipient. It is injected into
// the user service so tests can substitute a fake.
type Mailer interface {
	SendOtp(to, name, otp string) error
}

const otpSubject = "Password reset - verification code"

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f4f4;font-family:Arial,sans-serif;">
  <table width="100%" cellspacing="0" cellpadding="0" style="padding:20px;">
    <tr><td align="center">
      <table width="600" cellspacing="0" cellpadding="0" style="background-color:#ffffff;padding:30px;border-radius:8px;">
        <tr><td align="center" style="font-size:24px;font-weight:bold;color:#333333;">Password reset</td></tr>
        <tr><td style="padding:20px 0;font-size:16px;color:#555555;">Hello {{.Name}},</td></tr>
        <tr><td style="font-size:16px;color:#555555;">You asked to reset your password. Here is your verification code:</td></tr>
        <tr><td align="center" style="padding:20px 0;">
          <div style="font-size:28px;font-weight:bold;color:#007bff;background-color:#e9f0fb;padding:12px 24px;display:inline-block;border-radius:4px;">{{.Otp}}</div>
        </td></tr>
        <tr><td style="font-size:14px;color:#999999;">This code expires in <strong>10 minutes</strong>.</td></tr>
        <tr><td style="padding-top:20px;font-size:14px;color:#999999;">If you did not request this reset, you can ignore this email.</td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`))

// SMTPMailer sends OTP emails through an SMTP-compatible provider using gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.MailFrom,
	}
}

func (m *SMTPMailer) SendOtp(to, name, otp string) error {
	if name == "" {
		name = "user"
	}

	var body bytes.Buffer
	if err := otpTemplate.Execute(&body, struct {
		Name string
		Otp  string
	}{Name: name, Otp: otp}); err != nil {
		return fmt.Errorf("failed to render otp email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, "Depot Support")
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", otpSubject)
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}
	return nil
}
