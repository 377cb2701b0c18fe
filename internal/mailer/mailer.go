// Package mailer delivers rendered invoices over SMTP.
package mailer

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

// Sender delivers an invoice document to a customer. Implementations are
// best-effort from the route's point of view; the HTTP caller is never told
// about delivery failures.
type Sender interface {
	SendInvoice(customerEmail string, pdf []byte, orderID string) error
}

// SMTP sends through a configured transport using gomail.
type SMTP struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func NewSMTP(host string, port int, user, pass, from string) *SMTP {
	return &SMTP{Host: host, Port: port, User: user, Pass: pass, From: from}
}

func (s *SMTP) SendInvoice(customerEmail string, pdf []byte, orderID string) error {
	m := buildMessage(s.From, customerEmail, pdf, orderID)
	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	if err := d.DialAndSend(m); err != nil {
		return err
	}
	logrus.WithField("orderId", orderID).Info("invoice email sent")
	return nil
}

func buildMessage(from, to string, pdf []byte, orderID string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", from, "Sasha Store")
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Your Order Confirmation & Invoice (ID: %s)", orderID))
	m.SetBody("text/html", fmt.Sprintf(`<h1>Thank you for your order!</h1>
<p>We've received your order and are getting it ready for you.</p>
<p>Your invoice is attached to this email.</p>
<p>Order ID: %s</p>`, orderID))
	m.Attach(fmt.Sprintf("invoice-%s.pdf", orderID),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pdf)
			return err
		}),
		gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
	)
	return m
}
