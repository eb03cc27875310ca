package converter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hube-energy/emissor/internal/csvparser"
	"github.com/hube-energy/emissor/internal/types"
	"github.com/hube-energy/emissor/internal/xlsxparser"
)

// ErrUnsupportedFormat is returned for uploads that are neither CSV nor
// XLSX.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// LoadOptions controls dataset decoding.
type LoadOptions struct {
	// Encoding of CSV input ("utf-8", "latin-1", "windows-1252").
	Encoding string

	// Delimiter of CSV input; empty sniffs it.
	Delimiter string

	// Sheet of XLSX input; empty reads the first sheet.
	Sheet string
}

// LoadTable parses a dataset, picking the parser from the extension of name.
func LoadTable(name string, r io.Reader, opts LoadOptions) (*types.Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return csvparser.Parse(r, name, csvparser.Options{Delimiter: opts.Delimiter, Encoding: opts.Encoding})
	case ".xlsx", ".xlsm":
		return xlsxparser.Parse(r, name, xlsxparser.Options{Sheet: opts.Sheet})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
	}
}

// LoadFile parses the dataset at path.
func LoadFile(path string, opts LoadOptions) (*types.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return LoadTable(filepath.Base(path), f, opts)
}
