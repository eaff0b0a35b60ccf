package mailer

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSMTPMailerSend(t *testing.T) {
	t.Cleanup(func() { sendMail = smtp.SendMail })

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	m := &SMTPMailer{Host: "smtp.test", Port: 587, User: "u", Password: "p", From: "no-reply@test"}
	require.NoError(t, m.Send(ResetPasswordMessage("ana@test.com", "Ana", "http://front/reset?token=abc")))
	require.Equal(t, "smtp.test:587", gotAddr)
	require.NotNil(t, gotAuth)
	require.Equal(t, "no-reply@test", gotFrom)
	require.Equal(t, []string{"ana@test.com"}, gotTo)
	body := string(gotMsg)
	require.True(t, strings.HasPrefix(body, "From: no-reply@test\r\nTo: ana@test.com\r\n"))
	require.Contains(t, body, "Subject: Recuperación de contraseña\r\n")
	require.Contains(t, body, "http://front/reset?token=abc")

	m.User = ""
	require.NoError(t, m.Send(Message{To: "x@test", Subject: "s", Body: "b"}))
	require.Nil(t, gotAuth)

	sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	require.ErrorContains(t, m.Send(Message{To: "x@test"}), "refused")
}

func TestLogMailer(t *testing.T) {
	var m Mailer = LogMailer{}
	require.NoError(t, m.Send(Message{To: "x@test", Subject: "s", Body: "b"}))
}
