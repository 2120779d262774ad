package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vitrina-crm/pkg/errors"
)

func TestNormalizeKazakhPhoneNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"87771234567", "77771234567"},
		{"77771234567", "77771234567"},
		{"+7 (777) 123-45-67", "77771234567"},
		{"7771234567", "77771234567"},
		{"771234567", "77771234567"},
	}

	for _, c := range cases {
		got, err := NormalizeKazakhPhoneNumber(c.in)
		require.NoError(t, err, "вход: %q", c.in)
		assert.Equal(t, c.want, got, "вход: %q", c.in)
	}

	for _, in := range []string{"", "abc", "12345", "123456789012"} {
		_, err := NormalizeKazakhPhoneNumber(in)
		assert.ErrorIs(t, err, apperrors.ErrInvalidPhone, "вход: %q", in)
	}
}

func TestIsValidKazakhPhone(t *testing.T) {
	assert.True(t, IsValidKazakhPhone("87771234567"))
	assert.True(t, IsValidKazakhPhone("+7 777 123 45 67"))
	assert.False(t, IsValidKazakhPhone("12345"))
	assert.False(t, IsValidKazakhPhone(""))
}

func TestSamePhone(t *testing.T) {
	assert.True(t, SamePhone("87771234567", "+7 (777) 123-45-67"))
	assert.True(t, SamePhone("771234567", "87771234567"))
	assert.False(t, SamePhone("87771234567", "87771234568"))
	assert.False(t, SamePhone("", ""))
}
