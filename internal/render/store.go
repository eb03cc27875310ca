package render

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// EmbeddedTemplateName is the name of the built-in note template.
const EmbeddedTemplateName = "nota_padrao.html"

//go:embed templates/nota_padrao.html
var embeddedTemplate string

// ErrTemplateNotFound is returned when a named template does not exist.
var ErrTemplateNotFound = errors.New("template not found")

// Store is the catalogue of note templates kept in a directory.
type Store struct {
	dir      string
	encoding string
	fallback string
}

// NewStore creates a store over dir. Templates are decoded from encoding
// ("utf-8" when empty). fallback names the template Load uses for an empty
// name; when empty the embedded template is used.
func NewStore(dir, encoding, fallback string) *Store {
	return &Store{dir: dir, encoding: encoding, fallback: fallback}
}

// List returns the available template names in lexicographic order.
// Only *.html files count; names starting with "." or "_" are hidden.
// A missing directory is created and yields an empty list.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		if mkErr := os.MkdirAll(s.dir, 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create templates directory: %w", mkErr)
		}
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read templates directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !isVisibleTemplate(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}

	sort.Strings(names)
	return names, nil
}

// Load parses a template by name. An empty name loads the fallback.
func (s *Store) Load(name string) (*Template, error) {
	if name == "" {
		name = s.fallback
	}
	if name == "" {
		return Embedded(), nil
	}

	if !isVisibleTemplate(name) || name != filepath.Base(name) {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		if name == EmbeddedTemplateName {
			return Embedded(), nil
		}
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	content, err := decode(data, s.encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", name, err)
	}

	return Parse(name, content)
}

// Embedded returns the built-in note template.
func Embedded() *Template {
	return MustParse(EmbeddedTemplateName, embeddedTemplate)
}

func isVisibleTemplate(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".html")
}

func decode(data []byte, encoding string) (string, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return string(data), nil
	case "latin-1", "latin1", "iso-8859-1":
		return decodeWith(data, charmap.ISO8859_1)
	case "windows-1252", "cp1252":
		return decodeWith(data, charmap.Windows1252)
	default:
		return "", fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func decodeWith(data []byte, cm *charmap.Charmap) (string, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), cm.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
