// Package source reads CSV source files as lazy sequences of named records.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/retail-sdw/sdwload/internal/checksum"
	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// Reader opens CSV files from a file system.
// A Reader holds no open files; every call to Records opens its own.
type Reader struct {
	fsys  fs.FS
	comma rune
	calc  checksum.Calculator
}

// Option configures a Reader.
type Option func(*Reader)

// WithComma sets the field delimiter. The default is ','.
func WithComma(r rune) Option {
	return func(rd *Reader) {
		if r != 0 {
			rd.comma = r
		}
	}
}

// NewReader creates a Reader over fsys, typically os.DirFS(dataDir).
func NewReader(fsys fs.FS, opts ...Option) *Reader {
	r := &Reader{
		fsys:  fsys,
		comma: ',',
		calc:  checksum.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Records returns the data rows of name keyed by header column.
//
// The sequence is lazy: the file is opened when iteration starts and
// closed when it ends or the consumer stops early. Each iteration starts
// from the top of the file. A failure is yielded once as a nil record
// with a non-nil error, after which the sequence ends.
func (r *Reader) Records(name string) iter.Seq2[sdwload.Record, error] {
	return func(yield func(sdwload.Record, error) bool) {
		f, err := r.open(name)
		if err != nil {
			yield(nil, err)
			return
		}
		defer f.Close()

		cr := r.newCSVReader(f)

		header, err := readHeader(cr, name)
		if err != nil {
			yield(nil, err)
			return
		}

		for {
			fields, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, parseError(name, err))
				return
			}

			if err := checkUTF8(cr, name, fields); err != nil {
				yield(nil, err)
				return
			}

			rec := make(sdwload.Record, len(header))
			for i, col := range header {
				rec[col] = fields[i]
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Header returns the column names declared on the first line of name.
func (r *Reader) Header(name string) ([]string, error) {
	f, err := r.open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readHeader(r.newCSVReader(f), name)
}

// Digest returns the content digest of name.
func (r *Reader) Digest(name string) (string, error) {
	f, err := r.open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return r.calc.Sum(f)
}

func (r *Reader) open(name string) (fs.File, error) {
	f, err := r.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &sdwload.FileNotFoundError{Path: name, Err: err}
		}
		return nil, fmt.Errorf("open source %s: %w", name, err)
	}
	return f, nil
}

// newCSVReader decodes a leading byte-order mark: a UTF-8 BOM is dropped
// and UTF-16 input is transcoded to UTF-8. Input without a BOM passes
// through untouched so invalid UTF-8 reaches checkUTF8 instead of being
// replaced.
func (r *Reader) newCSVReader(f io.Reader) *csv.Reader {
	decoded := transform.NewReader(f, unicode.BOMOverride(transform.Nop))
	cr := csv.NewReader(decoded)
	cr.Comma = r.comma
	cr.FieldsPerRecord = 0
	cr.ReuseRecord = true
	return cr
}

func readHeader(cr *csv.Reader, name string) ([]string, error) {
	fields, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &sdwload.ParseError{Path: name, Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, parseError(name, err)
	}

	if err := checkUTF8(cr, name, fields); err != nil {
		return nil, err
	}

	header := make([]string, len(fields))
	seen := make(map[string]int, len(fields))
	for i, raw := range fields {
		col := strings.TrimSpace(raw)
		if col == "" {
			return nil, &sdwload.ParseError{Path: name, Line: 1, Err: fmt.Errorf("column %d has an empty name", i+1)}
		}
		if prev, dup := seen[col]; dup {
			return nil, &sdwload.ParseError{Path: name, Line: 1, Err: fmt.Errorf("column %q repeats column %d", col, prev+1)}
		}
		seen[col] = i
		header[i] = col
	}
	return header, nil
}

// checkUTF8 rejects a record holding bytes that are not valid UTF-8.
func checkUTF8(cr *csv.Reader, name string, fields []string) error {
	for i, f := range fields {
		if utf8.ValidString(f) {
			continue
		}
		line, col := cr.FieldPos(i)
		return &sdwload.ParseError{Path: name, Line: line,
			Err: fmt.Errorf("field %d (column %d) is not valid UTF-8", i+1, col)}
	}
	return nil
}

func parseError(name string, err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &sdwload.ParseError{Path: name, Line: csvErr.Line, Err: csvErr.Err}
	}
	return &sdwload.ParseError{Path: name, Err: err}
}
