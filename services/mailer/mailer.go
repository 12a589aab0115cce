package mailer

import (
	"fmt"
	"tutorhub_go/config"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// Mailer sends transactional email. The sendgrid implementation is used when
// an API key is configured; otherwise mail is logged to stdout so local
// development keeps working.
type Mailer interface {
	Send(toName, toEmail, subject, textBody string) error
}

type sendgridMailer struct {
	client   *sendgrid.Client
	fromName string
	fromMail string
}

type consoleMailer struct{}

// New picks the mailer implementation from configuration.
func New() Mailer {
	if config.AppConfig.SendgridAPIKey == "" {
		logrus.Warn("SENDGRID_API_KEY not set; emails will be logged instead of sent")
		return &consoleMailer{}
	}
	return &sendgridMailer{
		client:   sendgrid.NewSendClient(config.AppConfig.SendgridAPIKey),
		fromName: config.AppConfig.MailFromName,
		fromMail: config.AppConfig.MailFromEmail,
	}
}

func (m *sendgridMailer) Send(toName, toEmail, subject, textBody string) error {
	from := sgmail.NewEmail(m.fromName, m.fromMail)
	to := sgmail.NewEmail(toName, toEmail)
	message := sgmail.NewSingleEmail(from, subject, to, textBody, "")

	resp, err := m.client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func (m *consoleMailer) Send(toName, toEmail, subject, textBody string) error {
	logrus.WithFields(logrus.Fields{
		"to":      fmt.Sprintf("%s <%s>", toName, toEmail),
		"subject": subject,
	}).Info("MAIL (console): " + textBody)
	return nil
}

// SendAssistantInvitation emails the temporary credentials to a freshly
// created assistant. Fire-and-forget: a failed send is logged, never
// surfaced to the request.
func SendAssistantInvitation(m Mailer, assistantName, assistantEmail, teacherName, username, tempPassword string) {
	subject := "You have been invited to TutorHub"
	body := fmt.Sprintf(
		"Hello %s,\n\n%s invited you as an assistant on TutorHub.\n\n"+
			"Username: %s\nTemporary password: %s\n\n"+
			"Please sign in and change your password right away.\n",
		assistantName, teacherName, username, tempPassword,
	)

	go func() {
		if err := m.Send(assistantName, assistantEmail, subject, body); err != nil {
			logrus.WithError(err).WithField("email", assistantEmail).Error("Failed to send assistant invitation")
		}
	}()
}
