package mail

import (
	"bytes"
	"html/template"
)

var resetHTML = template.Must(template.New("reset").Parse(
	`<p>To reset your password, <a href="{{.Link}}">click here</a>.</p>
<p>If the above link doesn't work, please copy and paste the following URL into your browser:</p>
<p>{{.Link}}</p>
<br>
<p>If you did not make this request then simply ignore this email and no changes will be made.</p>
`))

// PasswordResetMessage builds the recovery e-mail carrying link.
func PasswordResetMessage(to, link string) (Message, error) {
	var buf bytes.Buffer
	if err := resetHTML.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return Message{}, err
	}

	return Message{
		To:       to,
		Subject:  "Password Reset Request",
		HTMLBody: buf.String(),
		TextBody: "To reset your password, open the following link:\n" + link +
			"\n\nIf you did not make this request then simply ignore this email and no changes will be made.\n",
	}, nil
}
