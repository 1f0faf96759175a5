package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
)

// TemplateData is the personalization payload for one outreach email.
type TemplateData struct {
	BusinessName string
	ContactName  string
	Website      string
	SenderName   string
	SEOScore     int
	Issues       []string
	Suggestions  string
}

// RenderedEmail is a fully personalized subject and body pair.
type RenderedEmail struct {
	Subject  string
	Body     string
	BodyHTML string
	Template string
}

type emailTemplate struct {
	subject *texttemplate.Template
	body    *texttemplate.Template
	html    *template.Template
}

// Template names offered to callers.
const (
	TemplateWebsiteImprovement = "website_improvement"
	TemplateGeneralOutreach    = "general_outreach"
)

const websiteImprovementSubject = `Quick question about {{.BusinessName}}`

const websiteImprovementBody = `Hi{{if .ContactName}} {{.ContactName}}{{end}},

I recently came across {{.BusinessName}} and noticed your website could be getting more traffic and customers.

A quick look found some easy wins:
{{range .Issues}}- {{.}}
{{end}}{{if .Suggestions}}
{{.Suggestions}}
{{end}}
Would you be open to a short call this week to walk through them?

Best,
{{.SenderName}}`

const websiteImprovementHTML = `<html><body>
<p>Hi{{if .ContactName}} {{.ContactName}}{{end}},</p>
<p>I recently came across <strong>{{.BusinessName}}</strong> and noticed your website could be getting more traffic and customers.</p>
<p>A quick look found some easy wins:</p>
<ul>{{range .Issues}}<li>{{.}}</li>{{end}}</ul>
{{if .Suggestions}}<p>{{.Suggestions}}</p>{{end}}
<p>Would you be open to a short call this week to walk through them?</p>
<p>Best,<br>{{.SenderName}}</p>
</body></html>`

const generalOutreachSubject = `Quick question about {{.BusinessName}}`

const generalOutreachBody = `Hi{{if .ContactName}} {{.ContactName}}{{end}},

I help local businesses like {{.BusinessName}} get more customers through their website. I had a quick idea I think could make a real difference for you.

Would you be open to a short call this week?

Best,
{{.SenderName}}`

const generalOutreachHTML = `<html><body>
<p>Hi{{if .ContactName}} {{.ContactName}}{{end}},</p>
<p>I help local businesses like <strong>{{.BusinessName}}</strong> get more customers through their website. I had a quick idea I think could make a real difference for you.</p>
<p>Would you be open to a short call this week?</p>
<p>Best,<br>{{.SenderName}}</p>
</body></html>`

func mustTemplate(name, subject, body, htmlBody string) emailTemplate {
	return emailTemplate{
		subject: texttemplate.Must(texttemplate.New(name + "/subject").Parse(subject)),
		body:    texttemplate.Must(texttemplate.New(name + "/body").Parse(body)),
		html:    template.Must(template.New(name + "/html").Parse(htmlBody)),
	}
}

var templates = map[string]emailTemplate{
	TemplateWebsiteImprovement: mustTemplate(TemplateWebsiteImprovement,
		websiteImprovementSubject, websiteImprovementBody, websiteImprovementHTML),
	TemplateGeneralOutreach: mustTemplate(TemplateGeneralOutreach,
		generalOutreachSubject, generalOutreachBody, generalOutreachHTML),
}

// Render personalizes the named template with the lead's data.
func Render(name string, data TemplateData) (*RenderedEmail, error) {
	tpl, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown email template: %s", name)
	}
	if data.SenderName == "" {
		data.SenderName = "The LeadPitch Team"
	}

	var subject, body, htmlBody bytes.Buffer
	if err := tpl.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := tpl.body.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}
	if err := tpl.html.Execute(&htmlBody, data); err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}

	return &RenderedEmail{
		Subject:  strings.TrimSpace(subject.String()),
		Body:     body.String(),
		BodyHTML: htmlBody.String(),
		Template: name,
	}, nil
}

// TemplateNames lists the available outreach templates.
func TemplateNames() []string {
	return []string{TemplateWebsiteImprovement, TemplateGeneralOutreach}
}
