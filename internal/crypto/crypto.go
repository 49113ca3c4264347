// Package crypto implements the Tuya LAN payload cipher.
//
// Encrypted payloads are AES-128-ECB with PKCS#7 padding. The 128-bit
// cipher key is the MD5 digest of the device's local key; both the digest
// and the ECB mode are mandated by the protocol, not a design choice here.
// Plaintext is always a JSON object, typically {"dps":{...}}.
package crypto

import (
	"crypto/aes"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Decrypt failures. Callers probing candidate keys only need to know the
// attempt did not produce a valid payload; the specific error is for debug
// logging.
var (
	ErrNoKey      = errors.New("no local key")
	ErrBlockAlign = errors.New("ciphertext not a multiple of the block size")
	ErrBadPadding = errors.New("corrupt pkcs7 padding")
	ErrNotJSON    = errors.New("plaintext is not a JSON object")
)

// versionTagLen is the ASCII protocol-version prefix ("3.3") on ciphertext.
const versionTagLen = 3

// DeriveKey returns the 128-bit AES key for a device local key:
// the MD5 digest of the key material.
func DeriveKey(localKey string) []byte {
	sum := md5.Sum([]byte(localKey))
	return sum[:]
}

// Decrypt decrypts an encrypted payload and decodes the JSON object inside.
//
// A leading 3-byte version tag is stripped if present. Any failure in the
// chain (absent key, misaligned ciphertext, bad padding after a wrong key,
// non-JSON plaintext) comes back as an error, never a panic, so callers can
// speculatively try candidate keys.
func Decrypt(data []byte, localKey string) (map[string]any, error) {
	if localKey == "" {
		return nil, ErrNoKey
	}

	if len(data) >= versionTagLen && data[0] == '3' && data[1] == '.' {
		data = data[versionTagLen:]
	}

	block, err := aes.NewCipher(DeriveKey(localKey))
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	if len(data) == 0 || len(data)%block.BlockSize() != 0 {
		return nil, ErrBlockAlign
	}

	plain := make([]byte, len(data))
	for i := 0; i < len(data); i += block.BlockSize() {
		block.Decrypt(plain[i:], data[i:])
	}

	plain, err = pkcs7Unpad(plain, block.BlockSize())
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(plain) {
		return nil, ErrNotJSON
	}
	var obj map[string]any
	if err := json.Unmarshal(plain, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	return obj, nil
}

// Encrypt is the inverse of Decrypt: JSON-encode obj, pad, encrypt under
// the derived key and prefix the version tag. The analyzer never transmits;
// this exists to validate captures against frames the command layer builds.
func Encrypt(obj map[string]any, localKey, version string) ([]byte, error) {
	if localKey == "" {
		return nil, ErrNoKey
	}

	plain, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	block, err := aes.NewCipher(DeriveKey(localKey))
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}

	plain = pkcs7Pad(plain, block.BlockSize())
	out := make([]byte, len(version)+len(plain))
	copy(out, version)
	for i := 0; i < len(plain); i += block.BlockSize() {
		block.Encrypt(out[len(version)+i:], plain[i:])
	}
	return out, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+pad)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(pad)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrBadPadding
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize || pad > len(data) {
		return nil, ErrBadPadding
	}
	return data[:len(data)-pad], nil
}
