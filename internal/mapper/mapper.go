// Package mapper coerces raw CSV records into typed parameter tuples.
package mapper

import (
	"errors"
	"iter"
	"strconv"
	"strings"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

var errMissingField = errors.New("field missing from record")

// MapRecord coerces rec into a tuple ordered like schema.
//
// Integer columns are parsed base-10 into int64, Decimal columns into
// float64, Text columns are passed through unchanged. Surrounding
// whitespace is ignored for numeric columns only. On failure no tuple is
// returned and the error is a *sdwload.TypeCoercionError.
func MapRecord(rec sdwload.Record, schema sdwload.Schema) (sdwload.Tuple, error) {
	tuple := make(sdwload.Tuple, len(schema))
	for i, col := range schema {
		raw, ok := rec[col.Name]
		if !ok {
			return nil, &sdwload.TypeCoercionError{Field: col.Name, Type: col.Type, Err: errMissingField}
		}
		v, err := Coerce(raw, col.Type)
		if err != nil {
			return nil, &sdwload.TypeCoercionError{Field: col.Name, Value: raw, Type: col.Type, Err: err}
		}
		tuple[i] = v
	}
	return tuple, nil
}

// Coerce converts one raw value to t.
func Coerce(raw string, t sdwload.ColumnType) (any, error) {
	switch t {
	case sdwload.Text:
		return raw, nil
	case sdwload.Integer:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, unwrapNumError(err)
		}
		return n, nil
	case sdwload.Decimal:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, unwrapNumError(err)
		}
		return f, nil
	default:
		return nil, errors.New("unsupported column type " + t.String())
	}
}

// unwrapNumError drops strconv's echo of the input, which
// TypeCoercionError already reports.
func unwrapNumError(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}

// MapRecords maps every record of seq lazily. The first read or coercion
// failure is yielded and ends the sequence.
func MapRecords(seq iter.Seq2[sdwload.Record, error], schema sdwload.Schema) iter.Seq2[sdwload.Tuple, error] {
	return func(yield func(sdwload.Tuple, error) bool) {
		for rec, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			tuple, err := MapRecord(rec, schema)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(tuple, nil) {
				return
			}
		}
	}
}
