package box

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// hashBufferSize bounds the memory used while hashing file content.
const hashBufferSize = 64 * 1024

// HashReader computes the SHA-256 digest of everything in r. It returns the
// lowercase hex digest, which serves as the content ID, and the number of
// bytes consumed.
func HashReader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	buf := make([]byte, hashBufferSize)
	n, err := io.CopyBuffer(h, r, buf)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
