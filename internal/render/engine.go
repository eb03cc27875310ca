package render

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/hube-energy/emissor/internal/normalize"
)

// legacyPlaceholder matches the "{{ name }}" form used by older note
// templates. Go templates address map keys as "{{.name}}".
var legacyPlaceholder = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// templateKeywords are bare identifiers with a meaning of their own.
var templateKeywords = map[string]struct{}{
	"end": {}, "else": {}, "break": {}, "continue": {}, "nil": {},
}

// funcMap holds the helpers available inside note templates.
var funcMap = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
	"default": func(fallback, value string) string {
		if strings.TrimSpace(value) == "" {
			return fallback
		}
		return value
	},
	"today": func() string {
		return normalize.FormatDisplayDate(time.Now())
	},
}

// Template is a parsed note template.
type Template struct {
	Name string
	tmpl *template.Template
}

// Parse compiles a note template. Referencing a key absent from the
// document context is an execution error, never an empty substitution.
func Parse(name, content string) (*Template, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "template "+name+" is empty", nil)
	}

	tmpl, err := template.New(name).
		Funcs(funcMap).
		Option("missingkey=error").
		Parse(upgradePlaceholders(content))
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse template "+name, err)
	}

	return &Template{Name: name, tmpl: tmpl}, nil
}

// MustParse is Parse for templates known to be valid.
func MustParse(name, content string) *Template {
	t, err := Parse(name, content)
	if err != nil {
		panic(err)
	}
	return t
}

// Execute substitutes values into the template and returns the HTML.
func (t *Template) Execute(values map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, values); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute template "+t.Name, err)
	}
	return buf.String(), nil
}

// upgradePlaceholders rewrites "{{ name }}" to "{{.name}}".
func upgradePlaceholders(content string) string {
	return legacyPlaceholder.ReplaceAllStringFunc(content, func(m string) string {
		name := legacyPlaceholder.FindStringSubmatch(m)[1]
		if _, ok := templateKeywords[name]; ok {
			return m
		}
		if _, ok := funcMap[name]; ok {
			return m
		}
		return "{{." + name + "}}"
	})
}
