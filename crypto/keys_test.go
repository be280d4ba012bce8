package crypto

import (
	"bytes"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	addr := NewAddress(LTBPrefix, raw)
	encoded := addr.String()

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Prefix() != LTBPrefix {
		t.Fatalf("expected prefix %q, got %q", LTBPrefix, decoded.Prefix())
	}
	if !bytes.Equal(decoded.Bytes(), raw) {
		t.Fatalf("round trip mismatch: %x != %x", decoded.Bytes(), raw)
	}
	if decoded.Raw() != addr.Raw() {
		t.Fatal("raw representation mismatch")
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	if _, err := DecodeAddress("not-bech32"); err == nil {
		t.Fatal("expected decode failure")
	}
	if _, err := DecodeAddress(""); err == nil {
		t.Fatal("expected decode failure for empty string")
	}
}

func TestGeneratedKeyDerivesAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	addr := key.PubKey().Address()
	if addr.Raw() == ([20]byte{}) {
		t.Fatal("derived address must be non-zero")
	}

	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.PubKey().Address().String() != addr.String() {
		t.Fatal("restored key must derive the same address")
	}
}
