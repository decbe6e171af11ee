package checksum

import (
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"

	"github.com/zeebo/xxh3"
)

// Calculator computes content digests.
type Calculator interface {
	// Sum streams r to the end and returns its digest.
	Sum(r io.Reader) (string, error)

	// SumBytes returns the digest of an in-memory payload.
	SumBytes(content []byte) string
}

// XXH3 implements Calculator with the 128-bit XXH3 hash.
// XXH3 is a zero-size type; value semantics avoid heap allocation.
type XXH3 struct{}

// New creates a new XXH3 based calculator.
func New() XXH3 {
	return XXH3{}
}

// Sum streams r through the hasher.
func (XXH3) Sum(r io.Reader) (string, error) {
	h := xxh3.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("checksum: %w", err)
	}
	return encode(h.Sum128()), nil
}

// SumBytes hashes content in one call.
func (XXH3) SumBytes(content []byte) string {
	return encode(xxh3.Hash128(content))
}

// SumFile opens name in fsys and returns its digest.
func SumFile(calc Calculator, fsys fs.FS, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return calc.Sum(f)
}

func encode(sum xxh3.Uint128) string {
	b := sum.Bytes()
	return hex.EncodeToString(b[:])
}
