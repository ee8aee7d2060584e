package mailer

import (
	"fmt"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	log "github.com/sirupsen/logrus"
)

// Provider sends notification emails. Delivery is best-effort: the approval
// workflow never fails because an email did not go out.
type Provider interface {
	SendEmail(to, subject, message string) error
}

type impl struct {
	user       string
	password   string
	host       string
	port       string
	sender     string
	tlsEnabled bool
}

// New builds an SMTP-backed mailer. With an empty host or user the mailer
// stays in place but silently skips every send.
func New(user, password, host, port, sender string, tlsEnabled bool) Provider {
	return &impl{
		user:       user,
		password:   password,
		host:       host,
		port:       port,
		sender:     sender,
		tlsEnabled: tlsEnabled,
	}
}

func (i *impl) SendEmail(to, subject, message string) (err error) {
	logger := log.WithField("to", to)
	if i.user == "" || i.host == "" || i.port == "" {
		logger.WithField("subject", subject).Debug("Email skipped, SMTP is not configured")
		return nil
	}
	if to == "" {
		return nil
	}

	auth := sasl.NewPlainClient("", i.user, i.password)
	mimeHeaders := "MIME-version: 1.0;\nContent-Type: text/plain; charset=\"UTF-8\";\r\n"
	body := strings.NewReader(fmt.Sprintf("Subject: Workflow Bridge - %s\n%s\r\n%s\r\n", subject, mimeHeaders, message))

	if i.tlsEnabled {
		err = smtp.SendMailTLS(i.host+":"+i.port, auth, i.sender, []string{to}, body)
	} else {
		err = smtp.SendMail(i.host+":"+i.port, auth, i.sender, []string{to}, body)
	}
	if err != nil {
		logger.WithError(err).Error("Failed to send email")
		return err
	}
	logger.Info("Email sent")
	return nil
}
