package mailer

import "errors"

// Template holds the fixed content of the newsletter message.
type Template struct {
	Subject string `yaml:"subject"`
	Text    string `yaml:"text"`
	HTML    string `yaml:"html"`
}

const defaultSubject = "Newsletter"

const defaultText = `Newsletter
Thanks for subscribing! There is nothing new to report this time.
`

const defaultHTML = `<html>
<body>
	<h1>Newsletter</h1>
	<p>Thanks for subscribing! There is nothing new to report this time.</p>
</body>
</html>
`

// DefaultTemplate returns the content used when no template is configured.
func DefaultTemplate() Template {
	return Template{
		Subject: defaultSubject,
		Text:    defaultText,
		HTML:    defaultHTML,
	}
}

// Validate reports whether t can produce a sendable message.
func (t Template) Validate() error {
	if t.Subject == "" {
		return errors.New("template subject is empty")
	}
	if t.Text == "" && t.HTML == "" {
		return errors.New("template has neither a text nor an HTML body")
	}
	return nil
}
