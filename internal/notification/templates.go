package notification

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

// Kind names the three outcome emails.
type Kind string

const (
	KindClaimApproved   Kind = "claim_approved"
	KindClaimRejected   Kind = "claim_rejected"
	KindRequestRejected Kind = "request_rejected"
)

var entityLabels = map[string]string{
	"band":        "la banda",
	"venue":       "la sala",
	"festival":    "el festival",
	"association": "la asociación",
	"promoter":    "la promotora",
	"organizer":   "el organizador",
}

func entityLabel(entityType string) string {
	if label, ok := entityLabels[entityType]; ok {
		return label
	}
	return "el perfil"
}

type templateData struct {
	Greeting    string
	EntityName  string
	EntityLabel string
	Reason      string
}

type templateSet struct {
	subject *texttemplate.Template
	html    *template.Template
	text    *texttemplate.Template
}

const (
	htmlLayoutStart = `<!doctype html><html><body style="font-family:sans-serif">` +
		`<p>Hola{{if .Greeting}} {{.Greeting}}{{end}},</p>`
	htmlLayoutEnd = `<p>El equipo de Escena</p></body></html>`
	textLayoutEnd = "\n\nEl equipo de Escena\n"
)

var templates = map[Kind]templateSet{
	KindClaimApproved: {
		subject: texttemplate.Must(texttemplate.New("claim_approved_subject").Parse("Tu solicitud para {{.EntityName}} fue aprobada")),
		html: template.Must(template.New("claim_approved").Parse(htmlLayoutStart +
			`<p>Revisamos tu solicitud y ya administras {{.EntityLabel}} <b>{{.EntityName}}</b>.</p>` +
			`<p>Desde ahora puedes editar el perfil y sus eventos.</p>` + htmlLayoutEnd)),
		text: texttemplate.Must(texttemplate.New("claim_approved").Parse(
			"Hola{{if .Greeting}} {{.Greeting}}{{end}},\n\nRevisamos tu solicitud y ya administras {{.EntityLabel}} {{.EntityName}}.\n" +
				"Desde ahora puedes editar el perfil y sus eventos." + textLayoutEnd)),
	},
	KindClaimRejected: {
		subject: texttemplate.Must(texttemplate.New("claim_rejected_subject").Parse("Tu solicitud para {{.EntityName}} no fue aprobada")),
		html: template.Must(template.New("claim_rejected").Parse(htmlLayoutStart +
			`<p>Revisamos tu solicitud sobre {{.EntityLabel}} <b>{{.EntityName}}</b> y no pudimos aprobarla.</p>` +
			`{{if .Reason}}<p>Motivo: {{.Reason}}</p>{{end}}` + htmlLayoutEnd)),
		text: texttemplate.Must(texttemplate.New("claim_rejected").Parse(
			"Hola{{if .Greeting}} {{.Greeting}}{{end}},\n\nRevisamos tu solicitud sobre {{.EntityLabel}} {{.EntityName}} y no pudimos aprobarla." +
				"{{if .Reason}}\nMotivo: {{.Reason}}{{end}}" + textLayoutEnd)),
	},
	KindRequestRejected: {
		subject: texttemplate.Must(texttemplate.New("request_rejected_subject").Parse("Tu registro de {{.EntityName}} no fue aprobado")),
		html: template.Must(template.New("request_rejected").Parse(htmlLayoutStart +
			`<p>No pudimos publicar {{.EntityLabel}} <b>{{.EntityName}}</b> que registraste.</p>` +
			`<p>Motivo: {{.Reason}}</p>` + htmlLayoutEnd)),
		text: texttemplate.Must(texttemplate.New("request_rejected").Parse(
			"Hola{{if .Greeting}} {{.Greeting}}{{end}},\n\nNo pudimos publicar {{.EntityLabel}} {{.EntityName}} que registraste.\n" +
				"Motivo: {{.Reason}}" + textLayoutEnd)),
	},
}

func render(kind Kind, to string, data templateData) (Message, error) {
	set, ok := templates[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown notification kind %q", kind)
	}

	var subj, html, text bytes.Buffer
	if err := set.subject.Execute(&subj, data); err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}
	if err := set.html.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	if err := set.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	return Message{To: to, Subject: subj.String(), HTMLBody: html.String(), TextBody: text.String()}, nil
}
