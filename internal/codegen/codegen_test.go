package codegen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/reviewboost-backend/internal/errors"
)

func TestGenerateUsesAlphabet(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := Generate(RequestCodeLength)
		require.NoError(t, err)
		assert.Len(t, code, RequestCodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(Alphabet, c), "unexpected char %q", c)
		}
	}
}

func TestGenerateRejectsZeroLength(t *testing.T) {
	_, err := Generate(0)
	assert.Error(t, err)
}

func TestGenerateUniqueRetriesOnCollision(t *testing.T) {
	calls := 0
	code, err := GenerateUnique(context.Background(), QRCodeLength, func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls < 3, nil
	})
	require.NoError(t, err)
	assert.Len(t, code, QRCodeLength)
	assert.Equal(t, 3, calls)
}

func TestGenerateUniqueGivesUp(t *testing.T) {
	_, err := GenerateUnique(context.Background(), 4, func(ctx context.Context, code string) (bool, error) {
		return true, nil
	})
	assert.ErrorIs(t, err, appErrors.ErrDuplicateCode)
}

func TestGenerateUniquePropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := GenerateUnique(context.Background(), 4, func(ctx context.Context, code string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("AbC23xyz"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("O0lI1"))
	assert.False(t, Valid("abc-def"))
}
