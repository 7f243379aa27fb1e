package config

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail/v2"
)

// MailConfigured reports whether SMTP delivery is possible.
func MailConfigured() bool {
	return Conf.SMTPHost != "" && Conf.SMTPFrom != ""
}

// SendMail delivers an HTML message through the configured SMTP relay.
func SendMail(to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	if !MailConfigured() {
		return fmt.Errorf("smtp not configured (SMTP_HOST/SMTP_FROM)")
	}

	m := mail.NewMessage()
	m.SetHeader("From", Conf.SMTPFrom)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	port := Conf.SMTPPort
	if port == 0 {
		port = 587
	}
	d := mail.NewDialer(Conf.SMTPHost, port, Conf.SMTPUser, Conf.SMTPPass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         Conf.SMTPHost,
		InsecureSkipVerify: Conf.SMTPSkipTLSVerify,
	}

	return d.DialAndSend(m)
}
