package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

const defaultSMTPTimeout = 10 * time.Second

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	// Timeout bounds one whole delivery: dial, handshake and DATA.
	Timeout time.Duration
}

type sendMailFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSender mails guests about their own booking and payment events.
type EmailSender struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
}

func NewEmailSender(cfg SMTPConfig) *EmailSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	s := &EmailSender{cfg: cfg}
	s.sendMail = s.deliver
	return s
}

func (s *EmailSender) Notify(ctx context.Context, e Event) error {
	if e.GuestEmail == "" {
		return nil
	}
	subject, body, ok := renderEmail(e)
	if !ok {
		return nil
	}

	msg := []byte("MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"From: " + headerValue(s.cfg.From) + "\r\n" +
		"To: " + headerValue(e.GuestEmail) + "\r\n" +
		"Subject: " + mime.QEncoding.Encode("utf-8", headerValue(subject)) + "\r\n\r\n" + body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := s.sendMail(ctx, net.JoinHostPort(s.cfg.Host, s.cfg.Port), auth, s.cfg.From, []string{e.GuestEmail}, msg); err != nil {
		return fmt.Errorf("send %s email to %s: %w", e.Type, e.GuestEmail, err)
	}
	return nil
}

// deliver is smtp.SendMail with the connection bound to ctx.
func (s *EmailSender) deliver(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Close()
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if a != nil {
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// headerValue drops line breaks so a value cannot start a new header.
func headerValue(v string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, v)
}

func renderEmail(e Event) (subject, body string, ok bool) {
	greeting := "Hello"
	if e.GuestName != "" {
		greeting = "Hello " + e.GuestName
	}
	stay := fmt.Sprintf("%s to %s", e.CheckInDate, e.CheckOutDate)

	var lines []string
	switch e.Type {
	case TypeBookingCreated:
		subject = fmt.Sprintf("Booking #%d received", e.BookingID)
		lines = []string{"We received your booking for " + stay + ".", "It will be confirmed once payment is settled."}
	case TypeBookingConfirmed:
		subject = fmt.Sprintf("Booking #%d confirmed", e.BookingID)
		lines = []string{"Your stay " + stay + " is confirmed."}
	case TypeBookingCancelled:
		subject = fmt.Sprintf("Booking #%d cancelled", e.BookingID)
		lines = []string{"Your booking for " + stay + " was cancelled.", "Reason: " + e.Reason}
	case TypeBookingNoShow:
		subject = fmt.Sprintf("Booking #%d marked as no-show", e.BookingID)
		lines = []string{"We did not see you on " + e.CheckInDate + " and released the room."}
	case TypePaymentCompleted:
		subject = "Payment received " + e.TransactionID
		lines = []string{fmt.Sprintf("We received %s for booking #%d.", FormatAmount(e.Amount), e.BookingID)}
	case TypePaymentRefunded:
		subject = "Refund issued " + e.TransactionID
		lines = []string{fmt.Sprintf("A refund of %s was issued for booking #%d.", FormatAmount(e.Amount), e.BookingID)}
	case TypeFoodOrderPlaced:
		subject = fmt.Sprintf("Room service order #%d", e.RequestID)
		lines = []string{fmt.Sprintf("Your order for room %s was received. Total %s.", e.RoomNumber, FormatAmount(e.Amount))}
	default:
		return "", "", false
	}
	return subject, greeting + ",\n\n" + strings.Join(lines, "\n") + "\n", true
}

// FormatAmount renders minor units as a decimal string, 30000 -> "300.00".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
