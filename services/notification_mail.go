package services

import (
	"bytes"
	"context"
	"html/template"
	"strconv"

	"eteeap-portfolio-api/models"
)

// MailFunc sends an HTML e-mail. config.SendMail satisfies it.
type MailFunc func(to []string, subject, html string) error

// Email is a rendered notification e-mail.
type Email struct {
	NotificationID uint     `json:"notification_id"`
	To             []string `json:"to"`
	Subject        string   `json:"subject"`
	HTML           string   `json:"html"`
}

var emailTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <p>Dear {{.Name}},</p>
  <p>{{.Message}}</p>
  {{if .Link}}<p><a href="{{.Link}}">Open your ETEEAP portfolio</a></p>{{end}}
  <p style="font-size: 12px; color: #7b8794;">This is an automated message from the ETEEAP portfolio system.</p>
</body>
</html>`))

// RenderEmail builds the e-mail for a stored notification.
func RenderEmail(recipient models.User, n models.Notification, baseURL string) (Email, error) {
	link := ""
	if baseURL != "" && n.RelatedPortfolioID != nil {
		link = baseURL + "/portfolios/" + strconv.FormatUint(uint64(*n.RelatedPortfolioID), 10)
	}

	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, struct {
		Name, Message, Link string
	}{recipient.Name, n.Message, link})
	if err != nil {
		return Email{}, err
	}

	return Email{
		NotificationID: n.NotificationID,
		To:             []string{recipient.Email},
		Subject:        n.Title,
		HTML:           buf.String(),
	}, nil
}

// MailChannel sends each notification as an e-mail inline.
type MailChannel struct {
	send    MailFunc
	baseURL string
}

func NewMailChannel(send MailFunc, baseURL string) *MailChannel {
	return &MailChannel{send: send, baseURL: baseURL}
}

func (m *MailChannel) Name() string { return "mail" }

func (m *MailChannel) Deliver(_ context.Context, recipient models.User, n models.Notification) error {
	if recipient.Email == "" {
		return nil
	}
	email, err := RenderEmail(recipient, n, m.baseURL)
	if err != nil {
		return err
	}
	return m.send(email.To, email.Subject, email.HTML)
}
