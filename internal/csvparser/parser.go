// =============================================================================
// Billing Note Emitter - CSV Parser Module
// =============================================================================
//
// This module is responsible for parsing billing datasets exported as CSV.
// The exports come from spreadsheets saved on different machines, so it
// handles:
//   - Different delimiters (comma, semicolon, tab, pipe), sniffed from the
//     header line when not configured
//   - A leading UTF-8 byte order mark
//   - Latin-1 / Windows-1252 encoded files
//   - Quoted fields spanning several lines
//
// The first non-empty record is the header line. Blank records are skipped,
// the same way the spreadsheet tools that produce these files skip them.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/hube-energy/emissor/internal/types"
)

// utf8BOM is the byte order mark Excel writes at the start of UTF-8 CSVs.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// candidateDelimiters are tried, in order, when sniffing the header line.
var candidateDelimiters = []rune{';', ',', '\t', '|'}

// =============================================================================
// PARSER OPTIONS
// =============================================================================

// Options controls how a CSV stream is decoded.
type Options struct {
	// Delimiter is the field separator. Accepts a single character or the
	// names "tab", "pipe", "semicolon", "comma". Empty means sniff.
	Delimiter string

	// Encoding is the character encoding of the stream.
	// Valid values: "utf-8" (default), "latin-1", "windows-1252"
	Encoding string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile opens a CSV file and parses it.
func ParseFile(filePath string, opts Options) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file, filepath.Base(filePath), opts)
}

// Parse reads a CSV stream and returns the dataset.
//
// PARAMETERS:
//   - r: The CSV stream.
//   - source: A display name for the origin, kept on the table.
//   - opts: Decoding options.
//
// RETURNS:
//   - The parsed table. A header-only file yields a table with no rows.
//   - An error if the stream cannot be decoded or has no header line.
//
// PARSING PROCESS:
//  1. Decode the byte stream to UTF-8
//  2. Drop the byte order mark
//  3. Choose the delimiter (configured or sniffed)
//  4. Read all records and split off the header line
func Parse(r io.Reader, source string, opts Options) (*types.Table, error) {
	decoder, err := decoderFor(opts.Encoding)
	if err != nil {
		return nil, err
	}

	var reader io.Reader = r
	if decoder != nil {
		reader = transform.NewReader(r, decoder.NewDecoder())
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	comma, err := resolveDelimiter(opts.Delimiter, data)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(bufio.NewReader(bytes.NewReader(data)))
	configureReader(csvReader, comma)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	var records [][]string
	for _, row := range allRows {
		if !isRowEmpty(row) {
			records = append(records, row)
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	return types.NewTable(source, cleanHeaders(records[0]), records[1:]), nil
}

// decoderFor maps an encoding name to a decoder. UTF-8 needs none.
func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// resolveDelimiter returns the configured delimiter, or sniffs one from the
// header line.
func resolveDelimiter(configured string, data []byte) (rune, error) {
	switch strings.ToLower(configured) {
	case "":
		return sniffDelimiter(data), nil
	case "\\t", "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	case ",", "comma":
		return ',', nil
	}

	runes := []rune(configured)
	if len(runes) != 1 {
		return 0, fmt.Errorf("invalid delimiter %q", configured)
	}
	return runes[0], nil
}

// sniffDelimiter picks the candidate occurring most often outside quotes on
// the header line. Comma wins when nothing is found.
func sniffDelimiter(data []byte) rune {
	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false

	for _, r := range string(data) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		if r == '\n' {
			break
		}
		counts[r]++
	}

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// configureReader configures the CSV reader.
func configureReader(reader *csv.Reader, comma rune) {
	reader.Comma = comma

	// Rows may be shorter or longer than the header line.
	reader.FieldsPerRecord = -1

	// Hand-edited exports often carry stray quotes inside fields.
	reader.LazyQuotes = true
}

// cleanHeaders trims header names and labels empty ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
