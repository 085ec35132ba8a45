package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"national with spaces", "06 12 34 56 78", "+33612345678"},
		{"national with dots", "06.12.34.56.78", "+33612345678"},
		{"national with dashes", "06-12-34-56-78", "+33612345678"},
		{"already international", "+33 6 12 34 56 78", "+33612345678"},
		{"double zero prefix", "0033612345678", "+33612345678"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw, "+33"))
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("0612345678"))
	assert.True(t, IsValidPhone("+33612345678"))
	assert.True(t, IsValidPhone("06 12 34 56 78"))
	assert.False(t, IsValidPhone("0012345678"))
	assert.False(t, IsValidPhone("061234"))
	assert.False(t, IsValidPhone("+44612345678"))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("marie@example.fr"))
	assert.True(t, IsValidEmail(" marie@example.fr "))
	assert.False(t, IsValidEmail("marie@example"))
	assert.False(t, IsValidEmail("marie example@x.fr"))
	assert.False(t, IsValidEmail(""))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "marie@example.fr", NormalizeEmail("  Marie@Example.FR "))
}
