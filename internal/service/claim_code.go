package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const claimCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var claimCodePattern = regexp.MustCompile(`^[A-Z0-9]{3}-[A-Z0-9]{3}$`)

// generateClaimCode returns two random 3-character segments joined by a hyphen.
func generateClaimCode() (string, error) {
	buf := make([]byte, 7)
	max := big.NewInt(int64(len(claimCodeAlphabet)))
	for i := range buf {
		if i == 3 {
			buf[i] = '-'
			continue
		}
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate claim code: %w", err)
		}
		buf[i] = claimCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
