// Package cryptox implements the one-way transform applied to sensitive
// values before they are stored.
//
// A Protector turns a raw value into a 64-character lowercase hex digest.
// With a protection key configured the digest is HMAC-SHA-256(key, value);
// without one it falls back to plain SHA-256. The transform is deterministic
// for a given key, so digests can be compared and re-protection of an already
// digest-shaped value can be detected with IsDigest.
package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
)

// DigestLength is the length of a hex-encoded SHA-256 digest.
const DigestLength = sha256.Size * 2

// Protector hashes sensitive values. The zero value is usable and hashes
// without a key.
type Protector struct {
	key []byte
}

// NewProtector returns a Protector keyed with key. An empty key selects the
// unkeyed SHA-256 path.
func NewProtector(key []byte) *Protector {
	k := make([]byte, len(key))
	copy(k, key)
	return &Protector{key: k}
}

// Keyed reports whether digests are computed with HMAC.
func (p *Protector) Keyed() bool {
	return p != nil && len(p.key) > 0
}

// Protect returns the digest of value. NULL-like inputs (nil, nil pointers,
// invalid sql.NullString) map to an invalid sql.NullString.
//
// Byte slices are hashed as-is. Strings are hashed as their UTF-8 bytes.
// Any other type is rendered with fmt.Sprint first.
func (p *Protector) Protect(value any) sql.NullString {
	raw, ok := rawBytes(value)
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: p.digest(raw), Valid: true}
}

func (p *Protector) digest(raw []byte) string {
	if p.Keyed() {
		mac := hmac.New(sha256.New, p.key)
		mac.Write(raw)
		return hex.EncodeToString(mac.Sum(nil))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func rawBytes(value any) ([]byte, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []byte:
		if v == nil {
			return nil, false
		}
		return v, true
	case string:
		return []byte(v), true
	case *string:
		if v == nil {
			return nil, false
		}
		return []byte(*v), true
	case sql.NullString:
		if !v.Valid {
			return nil, false
		}
		return []byte(v.String), true
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil || dv == nil {
			return nil, false
		}
		return rawBytes(dv)
	default:
		return []byte(fmt.Sprint(v)), true
	}
}

// IsDigest reports whether s already has the digest shape: exactly
// DigestLength characters from [0-9a-f].
//
// A raw secret that happens to be 64 lowercase hex characters is
// indistinguishable from a digest and will be treated as one.
func IsDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
