package layout

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// DeriveCurveAddress derives the pump.fun bonding-curve account for a mint.
// Used when the discovery feed left the curve pool's reserve ref unresolved.
func DeriveCurveAddress(mint string) (string, error) {
	mintBytes, err := base58.Decode(mint)
	if err != nil || len(mintBytes) != pubkeyLen {
		return "", fmt.Errorf("invalid mint %q", mint)
	}
	programBytes, err := base58.Decode(PumpFun)
	if err != nil {
		return "", fmt.Errorf("decode program id: %w", err)
	}
	addr := derivePDA([][]byte{[]byte("bonding-curve"), mintBytes}, programBytes)
	if addr == "" {
		return "", fmt.Errorf("no valid bump seed for mint %s", mint)
	}
	return addr, nil
}

// derivePDA derives a Program Derived Address: seeds+bump+programID+marker
// are hashed until the result falls off the ed25519 curve.
func derivePDA(seeds [][]byte, programID []byte) string {
	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, programID...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)
		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:])
		}
	}
	return ""
}

func isOnCurve(point []byte) bool {
	if len(point) != pubkeyLen {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
