package ir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serialises p. Equal programs encode to equal bytes.
func Encode(p *Program) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode ir: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a program written by Encode.
func Decode(data []byte) (*Program, error) {
	var p Program
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode ir: %w", err)
	}
	return &p, nil
}

// Hash is the hex sha256 of the encoding.
func Hash(p *Program) (string, error) {
	data, err := Encode(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
