// Package csvio reads and writes the crawler's CSV artifacts. Artifacts
// carry a UTF-8 byte-order marker so spreadsheet tools detect the
// encoding, and render NaN numeric fields as empty cells.
package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/openkrx/krxsnap/internal/dates"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Encode renders rows under the given header order. Missing cells and
// NaN numeric values render as empty strings.
func Encode(headers []string, rows []map[string]any) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(headers); err != nil {
		return "", eris.Wrap(err, "csvio: write header")
	}

	record := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			record[i] = formatValue(row[h])
		}
		if err := w.Write(record); err != nil {
			return "", eris.Wrap(err, "csvio: write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", eris.Wrap(err, "csvio: flush")
	}
	return sb.String(), nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case dates.Date:
		return string(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

// WriteArtifact writes the whole artifact in one shot, BOM first.
// Artifacts are never appended to or patched in place.
func WriteArtifact(path, text string) error {
	buf := make([]byte, 0, len(bom)+len(text))
	buf = append(buf, bom...)
	buf = append(buf, text...)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return eris.Wrapf(err, "csvio: write artifact %s", path)
	}
	return nil
}

// ReadArtifact parses an artifact into header-keyed rows, tolerating a
// leading byte-order marker and skipping blank lines.
func ReadArtifact(path string) ([]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csvio: read artifact %s", path)
	}
	data = bytes.TrimPrefix(data, bom)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "csvio: parse artifact %s", path)
	}
	if len(all) == 0 {
		return nil, nil
	}

	headers := all[0]
	rows := make([]map[string]string, 0, len(all)-1)
	for _, rec := range all[1:] {
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
