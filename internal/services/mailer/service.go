// -----------------------------------------------------------------------
// Digest mailer - markdown match digests over SMTP
// -----------------------------------------------------------------------

package mailer

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ternarybob/venari/internal/common"
)

// Service mails markdown digests (monitor alerts, top matches) to the
// configured recipients. The markdown itself rides along as the plain-text
// alternative; the HTML part is rendered with goldmark.
type Service struct {
	cfg    common.NotifyConfig
	md     goldmark.Markdown
	logger arbor.ILogger
}

func NewService(cfg common.NotifyConfig, logger arbor.ILogger) *Service {
	return &Service{
		cfg:    cfg,
		md:     goldmark.New(goldmark.WithExtensions(extension.Table)),
		logger: logger,
	}
}

// Enabled reports whether the mailer is switched on and minimally configured.
func (s *Service) Enabled() bool {
	return s.cfg.Enabled && s.cfg.SMTPHost != "" && len(s.cfg.To) > 0
}

// SendDigest renders the markdown to HTML and mails it. A disabled mailer is
// a silent no-op so callers can hand digests over unconditionally.
func (s *Service) SendDigest(ctx context.Context, subject, markdown string) error {
	if !s.cfg.Enabled {
		s.logger.Debug().Msg("Mailer disabled, digest dropped")
		return nil
	}
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("notify.smtp_host is not configured")
	}
	if len(s.cfg.To) == 0 {
		return fmt.Errorf("notify.to has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := s.renderHTML(markdown)
	if err != nil {
		return fmt.Errorf("failed to render digest: %w", err)
	}

	from := s.cfg.From
	if from == "" {
		from = s.cfg.SMTPUser
	}
	msg := buildMessage(from, s.cfg.To, subject, markdown, html, newBoundary())

	if err := s.send(from, msg); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	s.logger.Info().
		Str("subject", subject).
		Int("recipients", len(s.cfg.To)).
		Msg("Digest sent")
	return nil
}

func (s *Service) renderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// send connects, negotiates TLS, authenticates, and submits the message.
// Port 465 means implicit TLS; anything else starts plain and upgrades via
// STARTTLS when the server offers it.
func (s *Service) send(from string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.SMTPHost})
		if err != nil {
			return fmt.Errorf("TLS dial failed: %w", err)
		}
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return err
		}
	} else {
		var err error
		client, err = smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("SMTP dial failed: %w", err)
		}
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost}); err != nil {
				client.Close()
				return fmt.Errorf("STARTTLS failed: %w", err)
			}
		}
	}
	defer client.Close()

	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range s.cfg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("recipient %s rejected: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// buildMessage assembles a multipart/alternative message: the raw markdown
// as text/plain, the rendered HTML second so capable clients prefer it. Both
// parts are base64 so CJK content and long lines survive every relay.
func buildMessage(from string, to []string, subject, textBody, htmlBody, boundary string) []byte {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", encodeHeader(subject)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	msg.WriteString("\r\n")

	writePart(&msg, boundary, "text/plain", textBody)
	writePart(&msg, boundary, "text/html", htmlBody)

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return []byte(msg.String())
}

func writePart(msg *strings.Builder, boundary, contentType, body string) {
	if body == "" {
		return
	}
	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString(fmt.Sprintf("Content-Type: %s; charset=\"UTF-8\"\r\n", contentType))
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(wrapBase64(body))
	msg.WriteString("\r\n")
}

// encodeHeader RFC 2047-encodes a header value when it carries non-ASCII.
func encodeHeader(value string) string {
	return mime.BEncoding.Encode("UTF-8", value)
}

// wrapBase64 encodes the body and folds it at 76 columns per RFC 2045.
func wrapBase64(body string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	var out strings.Builder
	const width = 76
	for i := 0; i < len(encoded); i += width {
		end := i + width
		if end > len(encoded) {
			end = len(encoded)
		}
		out.WriteString(encoded[i:end])
		if end < len(encoded) {
			out.WriteString("\r\n")
		}
	}
	return out.String()
}

func newBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "venari_boundary"
	}
	return fmt.Sprintf("venari_%x", b)
}
