package layout

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/mr-tron/base58"

	"solana-pool-indexer/internal/domain"
)

func TestLayoutFor(t *testing.T) {
	spec, ok := LayoutFor(RaydiumAMMV4)
	if !ok {
		t.Fatal("expected layout for Raydium AMM v4")
	}
	if spec.Venue != domain.VenueRaydiumAMM || spec.Kind != KindVault {
		t.Errorf("unexpected spec: %+v", spec)
	}

	spec, ok = LayoutFor(PumpFun)
	if !ok {
		t.Fatal("expected layout for pump.fun")
	}
	if spec.Venue != domain.VenuePumpFun || spec.Kind != KindEmbedded {
		t.Errorf("unexpected spec: %+v", spec)
	}

	if _, ok := LayoutFor("UnknownProgram1111111111111111111111111111"); ok {
		t.Error("unknown program must not resolve to a layout")
	}
}

func TestDecodeVaults(t *testing.T) {
	spec, _ := LayoutFor(RaydiumAMMV4)

	raw := make([]byte, spec.MinLen)
	baseVault := make([]byte, 32)
	quoteVault := make([]byte, 32)
	for i := range baseVault {
		baseVault[i] = 0xAA
		quoteVault[i] = 0xBB
	}
	copy(raw[spec.BaseVaultOffset:], baseVault)
	copy(raw[spec.QuoteVaultOffset:], quoteVault)

	base, quote, err := DecodeVaults(spec, raw)
	if err != nil {
		t.Fatalf("DecodeVaults failed: %v", err)
	}
	if base != base58.Encode(baseVault) {
		t.Errorf("base vault = %s, want %s", base, base58.Encode(baseVault))
	}
	if quote != base58.Encode(quoteVault) {
		t.Errorf("quote vault = %s, want %s", quote, base58.Encode(quoteVault))
	}
}

func TestDecodeVaultsShortBuffer(t *testing.T) {
	spec, _ := LayoutFor(RaydiumAMMV4)

	_, _, err := DecodeVaults(spec, make([]byte, spec.MinLen-1))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for short buffer, got %v", err)
	}
}

func TestDecodeSideMints(t *testing.T) {
	spec, _ := LayoutFor(RaydiumAMMV4)

	raw := make([]byte, spec.MinLen)
	mint := make([]byte, 32)
	mint[0] = 0x01
	copy(raw[spec.BaseMintOffset:], mint)

	base, quote, err := DecodeSideMints(spec, raw)
	if err != nil {
		t.Fatalf("DecodeSideMints failed: %v", err)
	}
	if base != base58.Encode(mint) {
		t.Errorf("base mint = %s, want %s", base, base58.Encode(mint))
	}
	if quote != base58.Encode(make([]byte, 32)) {
		t.Errorf("quote mint = %s", quote)
	}
}

func TestDecodeTokenAmount(t *testing.T) {
	raw := make([]byte, 165)
	binary.LittleEndian.PutUint64(raw[64:], 123456789)

	amount, err := DecodeTokenAmount(raw)
	if err != nil {
		t.Fatalf("DecodeTokenAmount failed: %v", err)
	}
	if amount != 123456789 {
		t.Errorf("amount = %d, want 123456789", amount)
	}

	if _, err := DecodeTokenAmount(make([]byte, 64)); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode for short token account, got %v", err)
	}
}

func TestDecodeCurve(t *testing.T) {
	spec, _ := LayoutFor(PumpFun)

	raw := make([]byte, spec.MinLen)
	binary.LittleEndian.PutUint64(raw[spec.BaseReserveOffset:], 1_000_000)
	binary.LittleEndian.PutUint64(raw[spec.QuoteReserveOffset:], 500_000)
	raw[spec.CompleteOffset] = 1

	state, err := DecodeCurve(spec, raw)
	if err != nil {
		t.Fatalf("DecodeCurve failed: %v", err)
	}
	if state.BaseRaw != 1_000_000 || state.QuoteRaw != 500_000 {
		t.Errorf("reserves = (%d, %d), want (1000000, 500000)", state.BaseRaw, state.QuoteRaw)
	}
	if !state.Complete {
		t.Error("completion flag not decoded")
	}
}

func TestDecodeCurveShortBuffer(t *testing.T) {
	spec, _ := LayoutFor(PumpFun)

	if _, err := DecodeCurve(spec, make([]byte, spec.MinLen-1)); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for short curve account, got %v", err)
	}
	if _, err := DecodeCurve(spec, nil); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for nil buffer, got %v", err)
	}
}

func TestDecodeKindMismatch(t *testing.T) {
	vaultSpec, _ := LayoutFor(RaydiumAMMV4)
	curveSpec, _ := LayoutFor(PumpFun)

	if _, err := DecodeCurve(vaultSpec, make([]byte, vaultSpec.MinLen)); !errors.Is(err, ErrDecode) {
		t.Error("vault layout must not decode as curve")
	}
	if _, _, err := DecodeVaults(curveSpec, make([]byte, curveSpec.MinLen)); !errors.Is(err, ErrDecode) {
		t.Error("curve layout must not decode vaults")
	}
}
