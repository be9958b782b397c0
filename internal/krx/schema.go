package krx

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/openkrx/krxsnap/internal/dates"
)

// Row is one raw record from a report response: remote field code to
// string value. Rows only live inside a single fetch cycle.
type Row map[string]string

// Record is a normalized row keyed by semantic field name. Values are
// string, float64, or dates.Date. Non-trading numeric fields carry NaN.
type Record map[string]any

// Kind tells the normalizer how to decode a field.
type Kind int

const (
	// KindString copies the value verbatim.
	KindString Kind = iota
	// KindDecimal strips thousands separators; the "-" sentinel decodes
	// to NaN.
	KindDecimal
	// KindDate parses any of the accepted date forms.
	KindDate
	// KindSignedDecimal rebuilds a signed value as |decimal(Key)| times
	// the sign taken from SignKey. Some reports publish change magnitudes
	// unsigned, so the sign has to come from the separate up/down code.
	KindSignedDecimal
)

// Field maps one semantic field to its remote key.
type Field struct {
	Name    string
	Key     string
	Kind    Kind
	SignKey string // only for KindSignedDecimal
}

// Schema is the data-declared contract for one report: the report id,
// the response key holding the rows, and the field table.
type Schema struct {
	Name   string
	BLD    string
	Block  string
	Fields []Field
}

// Headers returns the semantic field names in declaration order, which
// is also the artifact column order.
func (s Schema) Headers() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Normalize converts one raw row into a typed record. Any missing key,
// unparseable number, bad date, or unknown sign code is an error.
func (s Schema) Normalize(row Row) (Record, error) {
	rec := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		switch f.Kind {
		case KindString:
			v, err := AsString(row, f.Key)
			if err != nil {
				return nil, err
			}
			rec[f.Name] = v
		case KindDecimal:
			v, err := AsDecimal(row, f.Key)
			if err != nil {
				return nil, err
			}
			rec[f.Name] = v
		case KindDate:
			v, err := AsDate(row, f.Key)
			if err != nil {
				return nil, err
			}
			rec[f.Name] = v
		case KindSignedDecimal:
			mag, err := AsDecimal(row, f.Key)
			if err != nil {
				return nil, err
			}
			sign, err := AsSign(row, f.SignKey)
			if err != nil {
				return nil, err
			}
			rec[f.Name] = math.Abs(mag) * sign
		}
	}
	return rec, nil
}

// NormalizeAll converts a whole response page.
func (s Schema) NormalizeAll(rows []Row) ([]Record, error) {
	recs := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := s.Normalize(row)
		if err != nil {
			return nil, eris.Wrapf(err, "normalize %s row", s.Name)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// AsString returns the raw value for key, failing if the key is absent.
func AsString(row Row, key string) (string, error) {
	v, ok := row[key]
	if !ok {
		return "", &MissingFieldError{Key: key}
	}
	return v, nil
}

// AsDecimal parses a numeric field after stripping thousands separators.
// The "-" sentinel means "not applicable on a non-trading day" and
// decodes to NaN rather than an error.
func AsDecimal(row Row, key string) (float64, error) {
	v, ok := row[key]
	if !ok {
		return 0, &MissingFieldError{Key: key}
	}
	return ParseDecimal(v)
}

// ParseDecimal is the bare decimal decode shared with the fee client.
func ParseDecimal(v string) (float64, error) {
	if v == "-" || v == "" {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "krx: parse decimal %q", v)
	}
	return f, nil
}

// AsDate parses a date field in any accepted format.
func AsDate(row Row, key string) (dates.Date, error) {
	v, ok := row[key]
	if !ok {
		return "", &MissingFieldError{Key: key}
	}
	return dates.Parse(v)
}

// AsSign maps the remote up/down/flat/limit code to -1, 0, or +1:
// "1" up, "2" down, "4" limit-up, "5" limit-down, ""/"0"/"3" flat.
func AsSign(row Row, key string) (float64, error) {
	v, ok := row[key]
	if !ok {
		return 0, &MissingFieldError{Key: key}
	}
	switch v {
	case "", "0", "3":
		return 0, nil
	case "1", "4":
		return 1, nil
	case "2", "5":
		return -1, nil
	}
	return 0, &UnknownSignError{Code: v}
}
