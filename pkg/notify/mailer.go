package notify

import (
	"context"

	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/hris-lab/trainflow/dao/model"
	"github.com/hris-lab/trainflow/pkg/config"
	"github.com/hris-lab/trainflow/pkg/logutils"
	"github.com/hris-lab/trainflow/pkg/metrics"
	"github.com/hris-lab/trainflow/pkg/workflow"
)

// Mailer delivers workflow notifications over SMTP and writes one
// NotificationRecord per recipient, even when the transport call carries
// several recipients at once. Record writes never fail a send.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	db     *gorm.DB
}

func NewMailer(db *gorm.DB) *Mailer {
	smtpConfig := config.GetConfig().SMTP
	return &Mailer{
		dialer: gomail.NewDialer(smtpConfig.Host, smtpConfig.Port, smtpConfig.User, smtpConfig.Password),
		from:   smtpConfig.From,
		db:     db,
	}
}

func (m *Mailer) Send(_ context.Context, n *workflow.Notification) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", n.To...)
	if len(n.Cc) > 0 {
		msg.SetHeader("Cc", n.Cc...)
	}
	msg.SetHeader("Subject", n.Subject)
	msg.SetBody("text/plain", n.Body)

	err := m.dialer.DialAndSend(msg)
	outcome := model.NotifySent
	detail := ""
	if err != nil {
		outcome = model.NotifyFailed
		detail = err.Error()
		logutils.Log.WithFields(logutils.Fields{
			"category": n.Category,
			"request":  n.RequestID,
		}).Errorf("smtp send failed: %v", err)
	} else {
		logutils.Log.WithFields(logutils.Fields{
			"category": n.Category,
			"request":  n.RequestID,
		}).Infof("sent mail to %d recipient(s)", len(n.To)+len(n.Cc))
	}
	metrics.Notifications.WithLabelValues(string(n.Category), outcomeLabel(err)).Inc()

	m.record(n, append(append([]string{}, n.To...), n.Cc...), outcome, detail)
	return err
}

func outcomeLabel(err error) string {
	if err != nil {
		return metrics.OutcomeFailed
	}
	return metrics.OutcomeOK
}

func (m *Mailer) record(n *workflow.Notification, recipients []string,
	outcome model.NotificationOutcome, detail string) {
	if m.db == nil {
		return
	}
	rows := make([]model.NotificationRecord, 0, len(recipients))
	for _, r := range recipients {
		rows = append(rows, model.NotificationRecord{
			RequestID:     n.RequestID,
			Recipient:     r,
			Category:      n.Category,
			Subject:       n.Subject,
			Outcome:       outcome,
			Error:         detail,
			CorrelationID: n.CorrelationID,
		})
	}
	if len(rows) == 0 {
		return
	}
	if err := m.db.Create(&rows).Error; err != nil {
		logutils.Log.Warnf("notification records not written: %v", err)
	}
}
