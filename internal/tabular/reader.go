// package tabular reads loosely-formatted CSV files into rows and resolves
// arbitrary column headings onto the fixed field set the import pipeline
// understands.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hesi-tools/memberdir/internal/shared"
)

// Options controls CSV parsing.
type Options struct {
	Delimiter rune // Field delimiter (default ',')
	NoHeaders bool // First row is data, not headings
}

// Table is the parsed shape of one input file. Headers is nil in
// no-headers mode.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ReadFile loads and parses a CSV file. A UTF-8 BOM is stripped, fully
// empty lines are dropped, and a parse failure under strict quoting is
// retried once with lazy quoting before giving up.
func ReadFile(path string, opts Options) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnreadableInput, err)
	}
	return Parse(bytes.TrimPrefix(raw, []byte("\xEF\xBB\xBF")), opts)
}

// Parse parses raw CSV bytes per opts.
func Parse(raw []byte, opts Options) (*Table, error) {
	records, err := parseWith(raw, opts, false)
	if err != nil {
		// Exported spreadsheets frequently carry stray quotes; retry
		// tolerantly before declaring the file unparsable.
		records, err = parseWith(raw, opts, true)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrUnparsableInput, err)
		}
	}

	var rows [][]string
	for _, rec := range records {
		if emptyRow(rec) {
			continue
		}
		rows = append(rows, rec)
	}

	t := &Table{}
	if opts.NoHeaders {
		t.Rows = rows
		return t, nil
	}

	if len(rows) > 0 {
		t.Headers = rows[0]
		t.Rows = rows[1:]
	}
	return t, nil
}

func parseWith(raw []byte, opts Options, lazy bool) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	if opts.Delimiter != 0 {
		r.Comma = opts.Delimiter
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = lazy

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func emptyRow(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
