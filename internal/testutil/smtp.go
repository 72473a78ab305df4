package testutil

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"io"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// ReceivedMail is one mail accepted by the SMTPServer.
type ReceivedMail struct {
	From    string
	To      []string
	Subject string
	Body    string
	Raw     []byte
}

// SMTPServer is an in-process SMTP server recording every accepted mail.
type SMTPServer struct {
	Addr     string
	Username string
	Password string

	// RootCAs trusts the server certificate. Nil unless WithSTARTTLS was given.
	RootCAs *x509.CertPool

	mu       sync.Mutex
	received []ReceivedMail
	server   *smtp.Server
}

// SMTPServerOption tweaks the server before it starts listening.
type SMTPServerOption func(t *testing.T, s *SMTPServer)

// WithSTARTTLS advertises STARTTLS with a self-signed certificate for 127.0.0.1 and localhost,
// and refuses MAIL on a plain connection.
func WithSTARTTLS() SMTPServerOption {
	return func(t *testing.T, s *SMTPServer) {
		cert, pool := selfSignedCert(t)
		s.RootCAs = pool
		s.server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	}
}

// NewSMTPServer starts a server on a random local port. It is closed when the test ends.
// When username is not empty, clients must authenticate with PLAIN before sending.
func NewSMTPServer(t *testing.T, username, password string, opts ...SMTPServerOption) *SMTPServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &SMTPServer{Addr: l.Addr().String(), Username: username, Password: password}
	s.server = smtp.NewServer(s)
	s.server.Domain = "localhost"
	s.server.AllowInsecureAuth = true
	s.server.ReadTimeout = 5 * time.Second
	s.server.WriteTimeout = 5 * time.Second
	for _, opt := range opts {
		opt(t, s)
	}
	go func() {
		_ = s.server.Serve(l)
	}()
	t.Cleanup(func() { _ = s.server.Close() })
	return s
}

// Received returns a copy of the mails accepted so far.
func (s *SMTPServer) Received() []ReceivedMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ReceivedMail, len(s.received))
	copy(out, s.received)
	return out
}

func (s *SMTPServer) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{server: s, conn: c}, nil
}

func selfSignedCert(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}
	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, pool
}

func (s *SMTPServer) record(m ReceivedMail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, m)
}

type smtpSession struct {
	server        *SMTPServer
	conn          *smtp.Conn
	from          string
	to            []string
	authenticated bool
}

func (s *smtpSession) AuthMechanisms() []string {
	if s.server.Username == "" {
		return nil
	}
	return []string{sasl.Plain}
}

func (s *smtpSession) Auth(mech string) (sasl.Server, error) {
	if mech != sasl.Plain {
		return nil, errors.New("unsupported authentication mechanism")
	}
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if username == s.server.Username && password == s.server.Password {
			s.authenticated = true
			return nil
		}
		return errors.New("invalid credentials")
	}), nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	if s.server.Username != "" && !s.authenticated {
		return smtp.ErrAuthRequired
	}
	if s.server.RootCAs != nil {
		if _, isTLS := s.conn.TLSConnectionState(); !isTLS {
			return &smtp.SMTPError{Code: 530, EnhancedCode: smtp.EnhancedCode{5, 7, 0}, Message: "Must issue a STARTTLS command first"}
		}
	}
	s.from = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.to = append(s.to, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m := ReceivedMail{From: s.from, To: s.to, Raw: raw}
	reader, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	m.Subject, _ = reader.Header.Subject()
	part, err := reader.NextPart()
	if err != nil {
		return err
	}
	body, err := io.ReadAll(part.Body)
	if err != nil {
		return err
	}
	// the transport turns line breaks into CRLF and terminates the last line
	m.Body = strings.TrimRight(strings.ReplaceAll(string(body), "\r\n", "\n"), "\n")
	s.server.record(m)
	return nil
}

func (s *smtpSession) Reset() {
	s.from = ""
	s.to = nil
}

func (s *smtpSession) Logout() error {
	return nil
}
