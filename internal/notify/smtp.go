package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	serrors "github.com/abgdnv/wallacore/internal/errors"
	"github.com/abgdnv/wallacore/pkg/config"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SMTPDispatcher submits plain-text notification mails to an SMTP server.
// A new connection is opened for every notification.
type SMTPDispatcher struct {
	cfg config.MailConfig
	now func() time.Time
	// tlsConfig is cloned for every STARTTLS handshake. ServerName defaults to the host of cfg.Addr.
	tlsConfig *tls.Config
}

var _ Dispatcher = (*SMTPDispatcher)(nil)

func NewSMTPDispatcher(cfg config.MailConfig) *SMTPDispatcher {
	return &SMTPDispatcher{cfg: cfg, now: time.Now}
}

func (d *SMTPDispatcher) Send(ctx context.Context, to, subject, body string) error {
	from, err := mail.ParseAddress(d.cfg.From)
	if err != nil {
		return fmt.Errorf("invalid sender address %q: %w: %w", d.cfg.From, err, serrors.ErrDelivery)
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("invalid recipient address %q: %w: %w", to, err, serrors.ErrDelivery)
	}
	msg, err := d.compose(from, rcpt, subject, body)
	if err != nil {
		return fmt.Errorf("failed to compose mail to %s: %w: %w", to, err, serrors.ErrDelivery)
	}
	if err := d.submit(ctx, from.Address, rcpt.Address, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w: %w", to, err, serrors.ErrDelivery)
	}
	return nil
}

func (d *SMTPDispatcher) compose(from, rcpt *mail.Address, subject, body string) ([]byte, error) {
	var h mail.Header
	h.SetDate(d.now())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{rcpt})
	h.SetSubject(subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, err
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *SMTPDispatcher) submit(ctx context.Context, from, to string, msg []byte) error {
	dialer := net.Dialer{Timeout: d.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.cfg.Addr)
	if err != nil {
		return err
	}
	c, err := d.newClient(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()
	c.CommandTimeout = d.cfg.Timeout
	c.SubmissionTimeout = d.cfg.Timeout

	if d.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", d.cfg.Username, d.cfg.Password)); err != nil {
			return err
		}
	}
	if err := c.Mail(from, nil); err != nil {
		return err
	}
	if err := c.Rcpt(to, nil); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// newClient greets the server and upgrades the connection when StartTLS is configured.
func (d *SMTPDispatcher) newClient(conn net.Conn) (*smtp.Client, error) {
	if !d.cfg.StartTLS {
		return smtp.NewClient(conn), nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if d.tlsConfig != nil {
		tlsCfg = d.tlsConfig.Clone()
	}
	if tlsCfg.ServerName == "" {
		host, _, err := net.SplitHostPort(d.cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("invalid mail server address %q: %w", d.cfg.Addr, err)
		}
		tlsCfg.ServerName = host
	}
	return smtp.NewClientStartTLS(conn, tlsCfg)
}
