package mailer

import (
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer 寄送純文字郵件
type Mailer interface {
	Send(msg Message) error
}

var sendMail = smtp.SendMail

type SMTPMailer struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (m *SMTPMailer) Send(msg Message) error {
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Password, m.Host)
	}
	if err := sendMail(addr, auth, m.From, []string{msg.To}, compose(m.From, msg)); err != nil {
		return fmt.Errorf("Send: %w", err)
	}
	return nil
}

func compose(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer 未設定 SMTP 時只寫入日誌
type LogMailer struct{}

func (LogMailer) Send(msg Message) error {
	log.Printf("郵件 (未寄出) to=%s subject=%q\n%s", msg.To, msg.Subject, msg.Body)
	return nil
}

// ResetPasswordMessage 密碼重設郵件
func ResetPasswordMessage(to, name, link string) Message {
	return Message{
		To:      to,
		Subject: "Recuperación de contraseña",
		Body: fmt.Sprintf("Hola %s,\n\nRecibimos una solicitud para restablecer tu contraseña.\n"+
			"Ingresá al siguiente enlace (válido por 1 hora):\n\n%s\n\n"+
			"Si no realizaste la solicitud, ignorá este mensaje.\n", name, link),
	}
}
