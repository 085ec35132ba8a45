// Package codegen generates the short public codes used in review links and QR codes.
package codegen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
)

// Alphabet leaves out characters that are easy to misread (0/O, 1/l/I, i/o).
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

const (
	RequestCodeLength = 12
	QRCodeLength      = 8
	maxAttempts       = 5
)

func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}
	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}

// ExistsFunc reports whether a code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// GenerateUnique draws codes until exists reports a free one.
// It gives up with ErrDuplicateCode after a few collisions.
func GenerateUnique(ctx context.Context, length int, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := Generate(length)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", appErrors.ErrDuplicateCode
}

// Valid reports whether code only uses characters from Alphabet.
func Valid(code string) bool {
	if code == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		found := false
		for j := 0; j < len(Alphabet); j++ {
			if code[i] == Alphabet[j] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
