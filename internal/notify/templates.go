package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Template names
const (
	TemplateSubscriptionActivated = "subscription_activated"
	TemplateJobStatusChanged      = "job_status_changed"
	TemplateEstimateReady         = "estimate_ready"
)

type messageTemplate struct {
	subject *template.Template
	text    *template.Template
	sms     *template.Template
}

func mustTemplate(name, subject, text, sms string) messageTemplate {
	return messageTemplate{
		subject: template.Must(template.New(name + "_subject").Parse(subject)),
		text:    template.Must(template.New(name + "_text").Parse(text)),
		sms:     template.Must(template.New(name + "_sms").Parse(sms)),
	}
}

var templates = map[string]messageTemplate{
	TemplateSubscriptionActivated: mustTemplate(TemplateSubscriptionActivated,
		`Your Fixly {{.Plan}} plan is active`,
		`Hello {{.WorkshopName}},

Your payment was received and your workshop is now on the {{.Plan}} plan.
Order reference: {{.OrderID}}

Thank you for using Fixly.
`,
		`Fixly: your {{.Plan}} plan is active.`),

	TemplateJobStatusChanged: mustTemplate(TemplateJobStatusChanged,
		`Update on your {{.Item}}`,
		`Hello {{.ClientName}},

The status of your {{.Item}} at {{.WorkshopName}} is now {{.Status}}.

{{.WorkshopName}}
`,
		`{{.WorkshopName}}: your {{.Item}} is now {{.Status}}.`),

	TemplateEstimateReady: mustTemplate(TemplateEstimateReady,
		`Estimate for your {{.Item}}`,
		`Hello {{.ClientName}},

{{.WorkshopName}} prepared an estimate of {{.Total}} for your {{.Item}}.
Review and approve it here: {{.Link}}
`,
		`{{.WorkshopName}}: estimate {{.Total}} for your {{.Item}}. Approve: {{.Link}}`),
}

// Rendered is a template executed against its data
type Rendered struct {
	Subject string
	Text    string
	SMS     string
}

// Render executes the named template
func Render(name string, data any) (Rendered, error) {
	t, ok := templates[name]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	var out Rendered
	var buf bytes.Buffer
	for _, step := range []struct {
		tmpl *template.Template
		dst  *string
	}{
		{t.subject, &out.Subject},
		{t.text, &out.Text},
		{t.sms, &out.SMS},
	} {
		buf.Reset()
		if err := step.tmpl.Execute(&buf, data); err != nil {
			return Rendered{}, fmt.Errorf("render %s: %w", step.tmpl.Name(), err)
		}
		*step.dst = buf.String()
	}
	out.Subject = strings.TrimSpace(out.Subject)
	return out, nil
}
