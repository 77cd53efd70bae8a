package mailer

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	cartdomain "github.com/Abdurahmanit/GroupProject/bookmarket/internal/cart/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/config"
	"gopkg.in/gomail.v2"
)

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends the transactional mails: listing confirmations and order
// receipts.
type Mailer struct {
	from   string
	sender Sender
}

func New(cfg config.SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return nil, errors.New("SMTP host, port and sender address must be configured")
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	return NewWithSender(cfg.From, d), nil
}

func NewWithSender(from string, s Sender) *Mailer {
	return &Mailer{from: from, sender: s}
}

func (m *Mailer) SendListingCreatedEmail(toEmail, listingTitle string) error {
	if toEmail == "" {
		return errors.New("no recipient for listing confirmation")
	}
	msg := m.message(toEmail, "New Listing Created")
	msg.SetBody("text/plain", "Your listing '"+listingTitle+"' has been created successfully.")
	return m.sender.DialAndSend(msg)
}

func (m *Mailer) SendOrderReceipt(toEmail string, order *cartdomain.Order) error {
	if toEmail == "" || order == nil {
		return errors.New("no recipient or order for receipt")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", order.ID)
	for _, it := range order.Items {
		fmt.Fprintf(&b, "- %s (%s): %.2f\n", it.Title, it.Intent, it.Price)
	}
	fmt.Fprintf(&b, "\nTotal: %.2f\nTransaction: %s\n", order.Total, order.TransactionID)

	msg := m.message(toEmail, "Your order receipt")
	msg.SetBody("text/plain", b.String())
	return m.sender.DialAndSend(msg)
}

func (m *Mailer) message(to, subject string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	return msg
}
