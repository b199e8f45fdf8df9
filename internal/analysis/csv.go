package analysis

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/rfm-segments/internal/common"
)

// table is a parsed CSV upload: the header row and the data rows keyed by
// header. A duplicated header keeps the value of its first column.
type table struct {
	Headers []string
	Rows    []map[string]string
}

// readTable parses CSV text with a header row. Blank lines are skipped and
// short rows leave their missing fields empty.
func readTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %w", common.ErrInvalidInput, err)
	}

	headers[0] = strings.TrimPrefix(headers[0], bom)

	t := &table{Headers: headers}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read CSV row: %w", common.ErrInvalidInput, err)
		}
		t.Rows = append(t.Rows, rowMap(headers, record))
	}
	return t, nil
}

const bom = "\ufeff"

// skipBOM drops a leading byte-order mark so a quoted first header still
// tokenizes as a quoted field.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if first, _, err := br.ReadRune(); err == nil && first != '\ufeff' {
		_ = br.UnreadRune()
	}
	return br
}

func rowMap(headers, record []string) map[string]string {
	row := make(map[string]string, len(headers))
	for i, h := range headers {
		if _, seen := row[h]; seen {
			continue
		}
		if i < len(record) {
			row[h] = record[i]
		} else {
			row[h] = ""
		}
	}
	return row
}
