package patch

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serialises p with msgpack, map keys sorted so equal patches encode
// to equal bytes.
func Encode(p *CompilerPatch) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode is the inverse of Encode. Untyped maps come back as map[string]any
// and integers as the narrowest Go integer type.
func Decode(data []byte) (*CompilerPatch, error) {
	var p CompilerPatch
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	return &p, nil
}

// Digest is the hex sha256 of Encode(p).
func Digest(p *CompilerPatch) (string, error) {
	data, err := Encode(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
