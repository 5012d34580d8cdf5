package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding decodes UTF-8 and drops a leading byte-order mark.
const DefaultEncoding = "utf-8-sig"

var (
	// ErrFileNotFound is returned when a CSV path does not exist.
	ErrFileNotFound = eris.New("csv file not found")
	// ErrEmptyCSV is returned when a CSV file has no header row.
	ErrEmptyCSV = eris.New("csv file is empty or has no header row")
	// ErrMissingColumns is returned when required header columns are absent.
	ErrMissingColumns = eris.New("missing essential columns")
	// ErrUnknownEncoding is returned for encoding names that cannot be resolved.
	ErrUnknownEncoding = eris.New("unknown text encoding")
)

// encodingAliases covers codec spellings operators commonly pass that the IANA
// index does not know.
var encodingAliases = map[string]encoding.Encoding{
	"latin-1": charmap.ISO8859_1,
	"latin_1": charmap.ISO8859_1,
	"latin1":  charmap.ISO8859_1,
	"cp1252":  charmap.Windows1252,
	"utf-16":  unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM),
	"utf_16":  unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM),
}

// DecodeError reports bytes that are invalid in the requested encoding.
type DecodeError struct {
	Path     string
	Encoding string
	Offset   int
	Bytes    []byte
}

func (e *DecodeError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf(
			"cannot decode %s as %s; try a different encoding with --encoding (e.g. latin-1, windows-1252) or make sure the file is %s",
			e.Path, e.Encoding, e.Encoding,
		)
	}
	return fmt.Sprintf(
		"cannot decode %s as %s: invalid byte(s) %q at offset %d; try a different encoding with --encoding (e.g. latin-1, windows-1252) or make sure the file is %s",
		e.Path, e.Encoding, e.Bytes, e.Offset, e.Encoding,
	)
}

// Row is one data row of a CSV file keyed by header name.
type Row struct {
	// Number is the 1-based position of the row among the data rows.
	Number int
	values map[string]string
}

// NewRow builds a row from header/value pairs; mainly useful in tests.
func NewRow(number int, values map[string]string) Row {
	copied := make(map[string]string, len(values))
	for key, value := range values {
		copied[key] = value
	}
	return Row{Number: number, values: copied}
}

// Lookup returns the raw value and whether the column exists in the file.
func (r Row) Lookup(column string) (string, bool) {
	value, ok := r.values[column]
	return value, ok
}

// Get returns the raw value or "" when the column is absent.
func (r Row) Get(column string) string {
	return r.values[column]
}

// Trimmed returns the value with surrounding whitespace removed.
func (r Row) Trimmed(column string) string {
	return strings.TrimSpace(r.values[column])
}

// Table is a decoded CSV file.
type Table struct {
	Path     string
	Encoding string
	Header   []string
	Rows     []Row
}

// ReadTable reads, decodes and parses a CSV file, failing when any required
// header column is missing. Every failure is fatal for the caller.
func ReadTable(path, encodingName string, required []string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrFileNotFound, "csv file not found at %s", path)
		}
		return nil, eris.Wrapf(err, "reading csv file %s", path)
	}

	name := strings.TrimSpace(encodingName)
	if name == "" {
		name = DefaultEncoding
	}

	decoded, err := decode(raw, name, path)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	// Markdown bodies often quote words inside unquoted cells.
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.Wrapf(ErrEmptyCSV, "csv file %s appears to be empty or has no header row", path)
		}
		return nil, eris.Wrapf(err, "reading header of %s", path)
	}

	if missing := missingColumns(header, required); len(missing) > 0 {
		return nil, eris.Wrapf(
			ErrMissingColumns,
			"missing essential column(s) in %s: %s. Expected headers: %s. Found: %s",
			path, strings.Join(missing, ", "), strings.Join(required, ", "), strings.Join(header, ", "),
		)
	}

	table := &Table{Path: path, Encoding: name, Header: header}
	for number := 1; ; number++ {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrapf(err, "parsing %s row %d", path, number)
		}

		values := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				values[column] = record[i]
			} else {
				values[column] = ""
			}
		}
		table.Rows = append(table.Rows, Row{Number: number, values: values})
	}

	return table, nil
}

// ReadHeader returns only the header row of a CSV file.
func ReadHeader(path, encodingName string) ([]string, error) {
	table, err := ReadTable(path, encodingName, nil)
	if err != nil {
		return nil, err
	}
	return table.Header, nil
}

func missingColumns(header, required []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, column := range header {
		present[column] = struct{}{}
	}

	var missing []string
	for _, column := range required {
		if _, ok := present[column]; !ok {
			missing = append(missing, column)
		}
	}
	return missing
}

func decode(raw []byte, name, path string) ([]byte, error) {
	switch normalizeEncodingName(name) {
	case "utf-8-sig":
		if err := validateUTF8(raw, path, name); err != nil {
			return nil, err
		}
		decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "decoding %s as %s", path, name)
		}
		return decoded, nil
	case "utf-8":
		if err := validateUTF8(raw, path, name); err != nil {
			return nil, err
		}
		return raw, nil
	}

	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}

	decoded, consumed, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, &DecodeError{Path: path, Encoding: name, Offset: consumed, Bytes: offendingBytes(raw, consumed)}
	}
	return decoded, nil
}

// offendingBytes returns up to four bytes starting where decoding stopped.
func offendingBytes(raw []byte, offset int) []byte {
	if offset < 0 || offset >= len(raw) {
		return nil
	}
	end := offset + 4
	if end > len(raw) {
		end = len(raw)
	}
	return append([]byte(nil), raw[offset:end]...)
}

func normalizeEncodingName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	switch strings.ReplaceAll(lowered, "_", "-") {
	case "utf-8-sig", "utf8-sig":
		return "utf-8-sig"
	case "utf-8", "utf8":
		return "utf-8"
	}
	return lowered
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if enc, ok := encodingAliases[lowered]; ok {
		return enc, nil
	}

	enc, err := ianaindex.IANA.Encoding(lowered)
	if err != nil || enc == nil {
		return nil, eris.Wrapf(ErrUnknownEncoding, "encoding %q", name)
	}
	return enc, nil
}

func validateUTF8(raw []byte, path, name string) error {
	for offset := 0; offset < len(raw); {
		r, size := utf8.DecodeRune(raw[offset:])
		if r == utf8.RuneError && size <= 1 {
			end := offset + 1
			if end > len(raw) {
				end = len(raw)
			}
			return &DecodeError{Path: path, Encoding: name, Offset: offset, Bytes: append([]byte(nil), raw[offset:end]...)}
		}
		offset += size
	}
	return nil
}
