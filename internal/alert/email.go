package alert

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// EmailSink sends a MIME multipart HTML notification over authenticated
// SMTP with STARTTLS, when credentials are configured. There is no
// third-party SMTP client anywhere in the example pack, so this uses the
// standard library net/smtp the way the wider Go ecosystem does STARTTLS
// email (see DESIGN.md).
type EmailSink struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
}

// NewEmailSink builds an email sink. Per spec §6, it is only meaningful
// to construct one when From and at least one To address are populated;
// callers gate construction on that in config wiring.
func NewEmailSink(host string, port int, username, password, from string, to []string) *EmailSink {
	return &EmailSink{host: host, port: port, username: username, password: password, from: from, to: to}
}

// Name identifies this sink in logs.
func (e *EmailSink) Name() string { return "email" }

// Send builds and delivers the notification. The SMTP round trip is
// blocking I/O, executed off the request-handling path because Alerter
// always calls Send from a background goroutine (spec §4.9).
func (e *EmailSink) Send(ev ViolationEvent) error {
	msg := e.buildMessage(ev)
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	defer conn.Close()

	if ok, _ := conn.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: e.host, MinVersion: tls.VersionTLS12}
		if err := conn.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	if e.username != "" {
		auth := smtp.PlainAuth("", e.username, e.password, e.host)
		if err := conn.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := conn.Mail(e.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range e.to {
		if err := conn.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt to %s: %w", rcpt, err)
		}
	}

	wc, err := conn.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := wc.Write(msg); err != nil {
		wc.Close() //nolint:errcheck
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}
	return conn.Quit()
}

func (e *EmailSink) buildMessage(ev ViolationEvent) []byte {
	subject := fmt.Sprintf("[Compliance Gateway] %s: %s", strings.ToUpper(ev.ActionTaken), ev.ViolationType)
	html := fmt.Sprintf(`<html><body>
<h2>Policy violation — %s</h2>
<p><b>Action taken:</b> %s</p>
<p><b>Severity:</b> %s</p>
<p><b>Violations:</b> %s</p>
<table>
<tr><td>Tenant</td><td>%s</td></tr>
<tr><td>App</td><td>%s</td></tr>
<tr><td>Model</td><td>%s</td></tr>
<tr><td>Request ID</td><td>%s</td></tr>
<tr><td>Time</td><td>%s</td></tr>
</table>
</body></html>`,
		ev.ViolationType, ev.ActionTaken, ev.Severity, strings.Join(ev.Violations, ", "),
		ev.TenantID, ev.AppID, ev.Model, ev.RequestID, ev.Timestamp.Format(time.RFC3339))

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	const boundary = "compliance-gateway-alert"
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	fmt.Fprintf(&b, "\r\n--%s--\r\n", boundary)
	return []byte(b.String())
}
