package layout

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrDecode marks malformed or undersized account data. Callers skip the
// pool for the cycle; nothing is written.
var ErrDecode = errors.New("account decode failed")

// CurveState is the decoded state of an embedded-curve pool account.
type CurveState struct {
	BaseRaw  uint64
	QuoteRaw uint64
	Complete bool
}

// DecodeVaults extracts the base/quote vault addresses from a vault-style
// pool account.
func DecodeVaults(spec *LayoutSpec, raw []byte) (baseVault, quoteVault string, err error) {
	if spec.Kind != KindVault {
		return "", "", fmt.Errorf("%w: layout %s has no vaults", ErrDecode, spec.Venue)
	}
	if len(raw) < spec.MinLen {
		return "", "", fmt.Errorf("%w: pool account %d bytes, want >= %d", ErrDecode, len(raw), spec.MinLen)
	}
	base, err := readPubkey(raw, spec.BaseVaultOffset)
	if err != nil {
		return "", "", err
	}
	quote, err := readPubkey(raw, spec.QuoteVaultOffset)
	if err != nil {
		return "", "", err
	}
	return base, quote, nil
}

// DecodeSideMints extracts the base/quote mint addresses from a vault-style
// pool account.
func DecodeSideMints(spec *LayoutSpec, raw []byte) (baseMint, quoteMint string, err error) {
	if spec.Kind != KindVault {
		return "", "", fmt.Errorf("%w: layout %s has no side mints", ErrDecode, spec.Venue)
	}
	if len(raw) < spec.MinLen {
		return "", "", fmt.Errorf("%w: pool account %d bytes, want >= %d", ErrDecode, len(raw), spec.MinLen)
	}
	base, err := readPubkey(raw, spec.BaseMintOffset)
	if err != nil {
		return "", "", err
	}
	quote, err := readPubkey(raw, spec.QuoteMintOffset)
	if err != nil {
		return "", "", err
	}
	return base, quote, nil
}

// DecodeTokenAmount reads the raw balance of an SPL token account.
func DecodeTokenAmount(raw []byte) (uint64, error) {
	if len(raw) < tokenAccountMinLen {
		return 0, fmt.Errorf("%w: token account %d bytes, want >= %d", ErrDecode, len(raw), tokenAccountMinLen)
	}
	return binary.LittleEndian.Uint64(raw[tokenAccountAmountOfs:]), nil
}

// DecodeCurve reads the virtual reserves and completion flag of an
// embedded-curve pool account.
func DecodeCurve(spec *LayoutSpec, raw []byte) (*CurveState, error) {
	if spec.Kind != KindEmbedded {
		return nil, fmt.Errorf("%w: layout %s is not an embedded curve", ErrDecode, spec.Venue)
	}
	if len(raw) < spec.MinLen {
		return nil, fmt.Errorf("%w: curve account %d bytes, want >= %d", ErrDecode, len(raw), spec.MinLen)
	}
	if spec.BaseReserveOffset+8 > len(raw) || spec.QuoteReserveOffset+8 > len(raw) || spec.CompleteOffset >= len(raw) {
		return nil, fmt.Errorf("%w: curve offsets out of range", ErrDecode)
	}
	return &CurveState{
		BaseRaw:  binary.LittleEndian.Uint64(raw[spec.BaseReserveOffset:]),
		QuoteRaw: binary.LittleEndian.Uint64(raw[spec.QuoteReserveOffset:]),
		Complete: raw[spec.CompleteOffset] != 0,
	}, nil
}

// readPubkey base58-encodes the 32 bytes at offset.
func readPubkey(raw []byte, offset int) (string, error) {
	if offset < 0 || offset+pubkeyLen > len(raw) {
		return "", fmt.Errorf("%w: pubkey offset %d out of range", ErrDecode, offset)
	}
	return base58.Encode(raw[offset : offset+pubkeyLen]), nil
}
