package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender envia invitaciones via SMTP, con TLS implicito o STARTTLS segun useTLS.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	useTLS   bool
}

func NewSMTPSender(host string, port int, username, password, from, fromName string, useTLS bool) (*SMTPSender, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
		useTLS:   useTLS,
	}, nil
}

func (s *SMTPSender) SendInvitation(_ context.Context, inv Invitation) error {
	toEmail := strings.TrimSpace(inv.ToEmail)
	if toEmail == "" {
		return fmt.Errorf("to email is required")
	}

	subject, body := invitationContent(inv)
	msg := buildMessage(s.from, s.fromName, toEmail, subject, body)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if s.useTLS {
		conn, err := tls.Dial("tcp", addr, &tls.Config{
			ServerName: s.host,
		})
		if err != nil {
			return err
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.host)
		if err != nil {
			return err
		}
		defer client.Quit()

		if auth != nil {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
		if err := client.Mail(s.from); err != nil {
			return err
		}
		if err := client.Rcpt(toEmail); err != nil {
			return err
		}
		writer, err := client.Data()
		if err != nil {
			return err
		}
		if _, err := writer.Write([]byte(msg)); err != nil {
			_ = writer.Close()
			return err
		}
		return writer.Close()
	}

	return smtp.SendMail(addr, auth, s.from, []string{toEmail}, []byte(msg))
}

func buildMessage(from, fromName, to, subject, body string) string {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	headers := []string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
	}

	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}

func invitationContent(inv Invitation) (string, string) {
	tenant := inv.TenantName
	if strings.TrimSpace(tenant) == "" {
		tenant = "your organization"
	}
	greeting := "Hello"
	if strings.TrimSpace(inv.FullName) != "" {
		greeting = "Hello " + inv.FullName
	}
	subject := fmt.Sprintf("You have been invited to %s", tenant)
	var b strings.Builder
	fmt.Fprintf(&b, "%s,\n\nYou have been added to %s.\n", greeting, tenant)
	fmt.Fprintf(&b, "Sign in with %s", inv.ToEmail)
	if inv.TemporaryPassword != "" {
		fmt.Fprintf(&b, " and the temporary password %s.\nPlease change it after your first login.\n", inv.TemporaryPassword)
	} else {
		b.WriteString(" and the password provided by your administrator.\n")
	}
	return subject, b.String()
}
