// Package file reads product and promotion catalogs from JSON files.
//
// Catalogs live in an fs.FS, usually os.DirFS of the configured catalog
// directory. Files whose name ends in ".gz" are gzip-compressed. Object keys
// are matched case-insensitively and unknown keys are ignored.
package file

import (
	"context"
	"io"
	"io/fs"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
)

// readFile returns the decompressed contents of name.
func readFile(ctx context.Context, fsys fs.FS, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if !strings.HasSuffix(name, ".gz") {
		return io.ReadAll(f)
	}

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	return io.ReadAll(gz)
}

// decodeObject calls fn with the lowercased key of every field of the object
// at d.
func decodeObject(d *jx.Decoder, fn func(d *jx.Decoder, key string) error) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		return fn(d, strings.ToLower(key))
	})
}

// isNull consumes a JSON null at d and reports whether there was one.
func isNull(d *jx.Decoder) (bool, error) {
	if d.Next() != jx.Null {
		return false, nil
	}
	return true, d.Null()
}

// decodeString reads field as a string.
func decodeString(d *jx.Decoder, field string) (string, error) {
	if tt := d.Next(); tt != jx.String {
		if err := d.Skip(); err != nil {
			return "", err
		}
		return "", invalidValue(field, errors.Errorf("expected string, got %v", tt))
	}
	return d.Str()
}

// decodeDecimal reads field as a number or a numeric string.
func decodeDecimal(d *jx.Decoder, field string) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = strings.TrimSpace(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = string(n)
	default:
		tt := d.Next()
		if err := d.Skip(); err != nil {
			return decimal.Zero, err
		}
		return decimal.Zero, invalidValue(field, errors.Errorf("expected number, got %v", tt))
	}

	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, invalidValue(field, err)
	}
	return v, nil
}
