package notify

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"text/template"

	"github.com/habitify/reminders/internal/markdown"
)

//go:embed templates/notification.md
var notificationTemplate string

var emailTemplate = template.Must(template.New("notification").Funcs(template.FuncMap{
	"yaml": strconv.Quote,
}).Parse(notificationTemplate))

type emailContent struct {
	Subject string
	HTML    string
	Text    string
}

type emailData struct {
	Title   string
	Body    string
	URL     string
	AppName string
}

func renderEmail(md *markdown.Parser, msg Message, appName, appURL string) (*emailContent, error) {
	data := emailData{
		Title:   msg.Title,
		Body:    msg.Body,
		URL:     appURL + msg.URL,
		AppName: appName,
	}

	var source bytes.Buffer
	if err := emailTemplate.Execute(&source, data); err != nil {
		return nil, fmt.Errorf("failed to execute email template: %w", err)
	}

	var meta struct {
		Subject string `yaml:"subject"`
	}
	html, err := md.ParseWithFrontmatter(source.Bytes(), &meta)
	if err != nil {
		return nil, fmt.Errorf("failed to render email: %w", err)
	}
	if meta.Subject == "" {
		meta.Subject = msg.Title
	}

	text := fmt.Sprintf("%s\n\n%s\n\nOpen %s: %s\n", msg.Title, msg.Body, appName, data.URL)

	return &emailContent{
		Subject: meta.Subject,
		HTML:    string(html),
		Text:    text,
	}, nil
}
