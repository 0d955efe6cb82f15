package notifications

import (
	"bytes"
	"html/template"

	"github.com/cap-ma/helperinfo/internal/requests"
)

// Telegram's HTML parse mode accepts only a small tag set (b, i, a,
// code); the template sticks to it and relies on html/template for
// escaping the submitted values.
const serviceRequestMessageTemplate = `<b>New service request</b>
<b>Name:</b> {{.FullName}}
<b>Email:</b> {{.EmailAddress}}
<b>Phone:</b> {{.CountryCode}} {{.PhoneNumber}}
{{- if .Location}}
<b>Location:</b> {{.Location}}{{end}}
{{- if .EstimatedBudget}}
<b>Budget:</b> {{.EstimatedBudget}}{{end}}
<b>Services:</b>
{{- range .ServicesNeeded}}
- {{.Name}}{{if .Price}} ({{.Price}}){{end}}
{{- end}}
<b>Requirements:</b> {{.DetailedRequirements}}
{{- if .BusinessType}}
<b>Business type:</b> {{.BusinessType}}{{end}}
<b>ID:</b> <code>{{.ID}}</code>`

var serviceRequestMessageTmpl = template.Must(template.New("service_request_notification").Parse(serviceRequestMessageTemplate))

func buildServiceRequestMessage(sr requests.ServiceRequest) (string, error) {
	var buf bytes.Buffer
	if err := serviceRequestMessageTmpl.Execute(&buf, sr); err != nil {
		return "", err
	}
	return buf.String(), nil
}
