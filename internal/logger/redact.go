package logger

import (
	"regexp"

	"go.uber.org/zap/zapcore"
)

// redactions are applied in order. Formatted patterns go first so their
// digits are gone before the bare-digit patterns run.
var redactions = []struct {
	pattern *regexp.Regexp
	mask    string
}{
	{regexp.MustCompile(`\b\d{3}\.\d{3}\.\d{3}-\d{2}\b`), "***.***.***-**"},
	{regexp.MustCompile(`\b\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}\b`), "**.***.***/****-**"},
	{regexp.MustCompile(`\b\d{14}\b`), "**************"},
	{regexp.MustCompile(`\b\d{11}\b`), "***********"},
}

// Redact masks every CPF and CNPJ found in s.
func Redact(s string) string {
	for _, r := range redactions {
		s = r.pattern.ReplaceAllString(s, r.mask)
	}
	return s
}

// redactingCore masks tax identifiers in the message and in string and
// error fields before handing the entry to the wrapped core.
type redactingCore struct {
	zapcore.Core
}

// NewRedactingCore wraps core with tax-identifier redaction.
func NewRedactingCore(core zapcore.Core) zapcore.Core {
	return &redactingCore{Core: core}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(redactFields(fields))}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = Redact(ent.Message)
	return c.Core.Write(ent, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		switch f.Type {
		case zapcore.StringType:
			f.String = Redact(f.String)
		case zapcore.ErrorType:
			if err, ok := f.Interface.(error); ok && err != nil {
				f = zapcore.Field{Key: f.Key, Type: zapcore.StringType, String: Redact(err.Error())}
			}
		}
		out[i] = f
	}
	return out
}
