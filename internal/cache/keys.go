package cache

import (
	"crypto/md5"
	"encoding/hex"
)

// Key derives a compact deterministic cache key from its parts. md5 is
// enough here: the hash only has to be stable and short, not secure.
func Key(parts ...string) string {
	h := md5.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
