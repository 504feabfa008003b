package notify

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Mailer отправляет почтовую копию уведомления о лиде.
// Включается конфигурацией MAIL_*; отказ почты никогда не влияет
// на доставку в Telegram.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	to     []string
}

func NewMailer(host string, port int, user, pass string, to []string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   user,
		to:     to,
	}
}

func (m *Mailer) Send(subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("не удалось отправить письмо: %w", err)
	}
	return nil
}
