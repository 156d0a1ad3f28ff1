package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/internal/config"
)

// Kind classifies a failed dispatch.
type Kind int

const (
	KindRelay Kind = iota + 1
	KindAuth
	KindRecipientRejected
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRecipientRejected:
		return "recipient_rejected"
	default:
		return "relay"
	}
}

// NotificationError is returned when the relay refuses or fails a dispatch.
type NotificationError struct {
	Kind Kind
	Err  error
}

func (e *NotificationError) Error() string {
	switch e.Kind {
	case KindAuth:
		return fmt.Sprintf("smtp authentication failed: %v", e.Err)
	case KindRecipientRejected:
		return fmt.Sprintf("smtp recipient rejected: %v", e.Err)
	default:
		return fmt.Sprintf("smtp relay error: %v", e.Err)
	}
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

func isKind(err error, kind Kind) bool {
	var nErr *NotificationError
	return errors.As(err, &nErr) && nErr.Kind == kind
}

func IsAuth(err error) bool              { return isKind(err, KindAuth) }
func IsRecipientRejected(err error) bool { return isKind(err, KindRecipientRejected) }
func IsRelay(err error) bool             { return isKind(err, KindRelay) }

// Mailer sends user status notifications through an SMTP relay.
type Mailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
	now    func() time.Time
}

// New builds a Mailer. A config without credentials yields a disabled mailer.
func New(cfg config.SMTPConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.Duration(30 * time.Second)
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Mailer{cfg: cfg, logger: logger, now: time.Now}
}

// NotifyStatus mails email when status is "inactive". It reports whether a message was dispatched.
func (m *Mailer) NotifyStatus(ctx context.Context, email, name, status string) (bool, error) {
	if status != domain.StatusInactive {
		return false, nil
	}
	if !m.cfg.Enabled() {
		m.logger.Warn("smtp relay not configured, skipping notification", zap.String("to", email))
		return false, nil
	}

	msg, err := inactiveMessage(m.cfg.From, email, name)
	if err != nil {
		return false, &NotificationError{Kind: KindRelay, Err: err}
	}
	if err := m.send(ctx, msg); err != nil {
		return false, err
	}

	m.logger.Info("status notification sent", zap.String("to", email), zap.String("status", status))
	return true, nil
}

func (m *Mailer) send(ctx context.Context, msg message) error {
	timeout := m.cfg.Timeout.Value()
	deadline := m.now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	addr := net.JoinHostPort(m.cfg.Server, strconv.Itoa(m.cfg.Port))
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &NotificationError{Kind: KindRelay, Err: err}
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return &NotificationError{Kind: KindRelay, Err: err}
	}

	client, err := smtp.NewClient(conn, m.cfg.Server)
	if err != nil {
		conn.Close()
		return &NotificationError{Kind: KindRelay, Err: err}
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Server, MinVersion: tls.VersionTLS12}); err != nil {
			return &NotificationError{Kind: KindRelay, Err: err}
		}
	} else if m.cfg.RequireTLS {
		return &NotificationError{Kind: KindRelay, Err: errors.New("relay does not offer STARTTLS")}
	}

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Server)
	if err := client.Auth(auth); err != nil {
		return &NotificationError{Kind: KindAuth, Err: err}
	}
	if err := client.Mail(msg.From); err != nil {
		return &NotificationError{Kind: KindRelay, Err: err}
	}
	if err := client.Rcpt(msg.To); err != nil {
		return &NotificationError{Kind: KindRecipientRejected, Err: err}
	}

	payload, err := msg.Bytes(m.now())
	if err != nil {
		return &NotificationError{Kind: KindRelay, Err: err}
	}
	w, err := client.Data()
	if err != nil {
		return &NotificationError{Kind: KindRelay, Err: err}
	}
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return &NotificationError{Kind: KindRelay, Err: err}
	}
	if err := w.Close(); err != nil {
		return &NotificationError{Kind: KindRelay, Err: err}
	}
	if err := client.Quit(); err != nil {
		m.logger.Debug("smtp quit failed", zap.Error(err))
	}
	return nil
}
