package crypto

import (
	"errors"
	"reflect"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := "fb8b6e1bd339f802"
	obj := map[string]any{
		"devId": "bf9348d1a2b3c4",
		"dps": map[string]any{
			"20": true,
			"21": "colour",
			"24": "003003e803e8",
			"22": float64(255),
		},
	}

	ct, err := Encrypt(obj, key, "3.3")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if string(ct[:3]) != "3.3" {
		t.Errorf("version tag = %q, want 3.3", ct[:3])
	}

	got, err := Decrypt(ct, key)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !reflect.DeepEqual(got, obj) {
		t.Errorf("round trip = %v, want %v", got, obj)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	ct, err := Encrypt(map[string]any{"dps": map[string]any{"1": true}}, "correct-key-0001", "3.3")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	// A wrong key must never yield a spuriously valid payload.
	if obj, err := Decrypt(ct, "wrong-key-000001"); err == nil {
		t.Errorf("Decrypt with wrong key succeeded: %v", obj)
	}
}

func TestDecryptFailures(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		key     string
		wantErr error
	}{
		{
			name:    "empty key",
			data:    make([]byte, 16),
			key:     "",
			wantErr: ErrNoKey,
		},
		{
			name:    "empty ciphertext",
			data:    nil,
			key:     "k",
			wantErr: ErrBlockAlign,
		},
		{
			name:    "misaligned ciphertext",
			data:    make([]byte, 17),
			key:     "k",
			wantErr: ErrBlockAlign,
		},
		{
			name:    "version tag only",
			data:    []byte("3.3"),
			key:     "k",
			wantErr: ErrBlockAlign,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decrypt(tt.data, tt.key); !errors.Is(err, tt.wantErr) {
				t.Errorf("Decrypt() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPKCS7Unpad(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    []byte
		wantErr bool
	}{
		{
			name: "one byte of padding",
			data: append([]byte("fifteen bytes.."), 0x01),
			want: []byte("fifteen bytes.."),
		},
		{
			name: "full block of padding",
			data: []byte{16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16},
			want: []byte{},
		},
		{
			name:    "zero pad byte",
			data:    append(make([]byte, 15), 0x00),
			wantErr: true,
		},
		{
			name:    "pad exceeds block size",
			data:    append(make([]byte, 15), 0x11),
			wantErr: true,
		},
		{
			name:    "empty input",
			data:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pkcs7Unpad(tt.data, 16)
			if (err != nil) != tt.wantErr {
				t.Fatalf("pkcs7Unpad() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("pkcs7Unpad() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveKeyLength(t *testing.T) {
	if got := len(DeriveKey("any local key")); got != 16 {
		t.Errorf("derived key length = %d, want 16", got)
	}
}
