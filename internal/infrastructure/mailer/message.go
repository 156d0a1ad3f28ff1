package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	texttemplate "text/template"
	"time"
)

const inactiveSubject = "Estado de Usuario Inactivo"

var inactiveText = texttemplate.Must(texttemplate.New("text").Parse(`Estimado/a {{.Name}},

Hemos detectado que tu estado en nuestro sistema externo es 'inactivo'.

Por favor, contacta con nuestro equipo de soporte si esto es un error.

Saludos,
El equipo de soporte
`))

var inactiveHTML = template.Must(template.New("html").Parse(`<html>
<body>
	<h2>Estado de Usuario Inactivo</h2>
	<p>Estimado/a <strong>{{.Name}}</strong>,</p>
	<p>Hemos detectado que tu estado en nuestro sistema externo es '<strong>inactivo</strong>'.</p>
	<p>Por favor, contacta con nuestro equipo de soporte si esto es un error.</p>
	<p>Saludos,<br>El equipo de soporte</p>
</body>
</html>
`))

type message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// inactiveMessage renders the notice sent when the remote system flags a user as inactive.
// The plain-text part uses the raw name; the HTML part escapes it.
func inactiveMessage(from, to, name string) (message, error) {
	data := struct{ Name string }{Name: name}

	var text, html bytes.Buffer
	if err := inactiveText.Execute(&text, data); err != nil {
		return message{}, err
	}
	if err := inactiveHTML.Execute(&html, data); err != nil {
		return message{}, err
	}

	return message{
		From:    from,
		To:      to,
		Subject: inactiveSubject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// Bytes builds an RFC 5322 multipart/alternative message.
func (m message) Bytes(now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	body := multipart.NewWriter(&buf)

	headers := []struct{ key, value string }{
		{"From", m.From},
		{"To", m.To},
		{"Subject", mime.QEncoding.Encode("utf-8", m.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", body.Boundary())},
	}
	var out bytes.Buffer
	for _, h := range headers {
		fmt.Fprintf(&out, "%s: %s\r\n", h.key, h.value)
	}
	out.WriteString("\r\n")

	for _, part := range []struct{ contentType, content string }{
		{"text/plain; charset=utf-8", m.Text},
		{"text/html; charset=utf-8", m.HTML},
	} {
		w, err := body.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(part.content)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := body.Close(); err != nil {
		return nil, err
	}

	out.Write(buf.Bytes())
	return out.Bytes(), nil
}
