// Package checksum fingerprints source files.
//
// Every load result carries the digest of the file it was read from, so
// two runs can be compared without keeping the data around. Digests are
// 128-bit XXH3 values rendered as 32 lowercase hex characters.
//
// # Example Usage
//
//	calc := checksum.New()
//	digest, err := calc.Sum(file)
//
// # Thread Safety
//
// XXH3 is safe for concurrent use by multiple goroutines.
package checksum
