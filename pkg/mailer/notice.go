package mailer

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	"strings"
	texttpl "text/template"
	"time"
)

// ProjectNotice is the data for the "project published" email sent to a
// project's creator.
type ProjectNotice struct {
	AppName     string
	CreatorName string
	ProjectName string
	ProjectURL  string
	CreatedAt   time.Time
}

const noticeText = `Hi {{ .CreatorName | default "there" }},

Your project "{{ .ProjectName }}" is now live on {{ .AppName }}.
{{- if .ProjectURL }}
View it at {{ .ProjectURL }}
{{- end }}

Published {{ .CreatedAt | stamp }}.
`

const noticeHTML = `<p>Hi {{ .CreatorName | default "there" }},</p>
<p>Your project <strong>{{ .ProjectName }}</strong> is now live on {{ .AppName }}.</p>
{{- if .ProjectURL }}
<p><a href="{{ .ProjectURL }}">View project</a></p>
{{- end }}
<p><small>Published {{ .CreatedAt | stamp }}.</small></p>
`

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback, value string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "just now"
	}
	return t.UTC().Format("02 Jan 2006 15:04 MST")
}

var (
	noticeTextTpl = texttpl.Must(texttpl.New("notice.txt").
			Funcs(texttpl.FuncMap{"default": defaultFn, "stamp": stamp}).
			Parse(noticeText))
	noticeHTMLTpl = htmpl.Must(htmpl.New("notice.html").
			Funcs(htmpl.FuncMap{"default": defaultFn, "stamp": stamp}).
			Parse(noticeHTML))
)

// Render returns subject, text and html bodies for the notice.
func (n ProjectNotice) Render() (subject, text, html string, err error) {
	var tb, hb bytes.Buffer
	if err = noticeTextTpl.Execute(&tb, n); err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	if err = noticeHTMLTpl.Execute(&hb, n); err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	subject = fmt.Sprintf("Your project %q is live", n.ProjectName)
	return subject, tb.String(), hb.String(), nil
}
