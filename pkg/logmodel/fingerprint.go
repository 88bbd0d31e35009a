package logmodel

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strconv"
)

// fingerprintPrefixBytes bounds the amount of content hashed for large
// files; combined with the total length, a prefix hash is stable enough to
// dedup real telemetry logs without reading the whole file twice.
const fingerprintPrefixBytes = 1 << 20 // 1 MiB

// Fingerprint computes a stable content hash over a bounded prefix of r
// plus the total byte length, as used by the ingestion orchestrator's
// dedup check (spec §4.8). Fingerprint reads r to EOF to count its total
// length, but only hashes the first fingerprintPrefixBytes bytes.
func Fingerprint(r io.Reader) (string, int64, error) {
	h := sha256.New()
	limited := io.LimitReader(r, fingerprintPrefixBytes)
	n, err := io.Copy(h, limited)
	if err != nil {
		return "", 0, err
	}

	total := n
	if n == fingerprintPrefixBytes {
		rest, err := io.Copy(io.Discard, r)
		if err != nil {
			return "", 0, err
		}
		total += rest
	}

	sum := h.Sum(nil)
	fp := hex.EncodeToString(sum) + ":" + strconv.FormatInt(total, 10)
	return fp, total, nil
}
