package layout

import (
	"testing"

	"github.com/mr-tron/base58"
)

func TestDeriveCurveAddressDeterministic(t *testing.T) {
	mintBytes := make([]byte, 32)
	for i := range mintBytes {
		mintBytes[i] = byte(i + 1)
	}
	mint := base58.Encode(mintBytes)

	first, err := DeriveCurveAddress(mint)
	if err != nil {
		t.Fatalf("DeriveCurveAddress failed: %v", err)
	}
	if first == "" {
		t.Fatal("derived address is empty")
	}

	second, err := DeriveCurveAddress(mint)
	if err != nil {
		t.Fatalf("second derivation failed: %v", err)
	}
	if first != second {
		t.Errorf("derivation not deterministic: %s vs %s", first, second)
	}

	decoded, err := base58.Decode(first)
	if err != nil || len(decoded) != 32 {
		t.Errorf("derived address is not a 32-byte pubkey: %s", first)
	}
}

func TestDeriveCurveAddressInvalidMint(t *testing.T) {
	if _, err := DeriveCurveAddress("not-base58!"); err == nil {
		t.Error("expected error for malformed mint")
	}
	if _, err := DeriveCurveAddress(base58.Encode([]byte{1, 2, 3})); err == nil {
		t.Error("expected error for short mint")
	}
}
