package prompt

import (
	"strings"
	"text/template"
)

const systemTemplateText = `You are {{.Companion.Name}}, {{.Companion.Title}}, a companion in the Crystal Sanctuary. {{.Companion.Personality.Core}}

[Persona]
Traits: {{join .Companion.Personality.Traits}}.
Communication style: {{.Companion.Personality.Communication}}
Approach: {{.Companion.Personality.Approach}}
Primary expertise: {{join .Companion.Expertise.Primary}}.
{{- if .Companion.Expertise.Knowledge}}
You have deep knowledge of: {{join .Companion.Expertise.Knowledge}}.
{{- end}}
{{- with .Landmark}}

[Location]
Current location: {{.Name}}. {{.Description}}
Notable here: {{join .Features}}.
Available here: {{join .Activities}}.
{{- end}}

[Current state]
{{- if .MoodInstruction}}
{{.MoodInstruction}}
{{- end}}
Atmosphere: {{.Atmosphere}}
{{- if .History}}

[Recent conversation]
{{- range .History}}
{{.Speaker}}: {{.Content}}
{{- end}}
{{- end}}

[Instructions]
- Respond in {{.Words.Ideal}}-{{.Words.Max}} words maximum.
- Blend your expertise with the mystical environment naturally.
- Reference specific features of the current location when relevant.
- Draw from both mystical and real-world knowledge.
- Be concise but meaningful. Do not prefix the reply with your name.
{{- with .Discussion}}
- You're discussing with {{.Partner.Name}}.{{with .Dynamic}} {{.InteractionStyle}}{{end}}
{{- if .Style.Instruction}}
- {{.Style.Instruction}}
{{- end}}
{{- end}}`

const discussionTemplateText = `You are having a discussion with {{.Partner.Name}} about: {{.Topic}}.
{{- with .Dynamic}}
Your interaction style: {{.InteractionStyle}}
Common ground: {{join .CommonGround}}
{{- end}}
{{- if .ReplyTo}}
{{.Partner.Name}} just said: "{{.ReplyTo}}"
{{- end}}
Offer your perspective based on your expertise, in {{.Words}} words.`

var funcs = template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
}

var (
	systemTemplate     = template.Must(template.New("system").Funcs(funcs).Parse(systemTemplateText))
	discussionTemplate = template.Must(template.New("discussion").Funcs(funcs).Parse(discussionTemplateText))
)
