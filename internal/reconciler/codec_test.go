package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengate/internal/compliance"
)

func TestEncodeStatusMatchesContract(t *testing.T) {
	expected := map[compliance.Status]uint8{
		compliance.StatusUnauthorized:  0,
		compliance.StatusApproved:      1,
		compliance.StatusGrandfathered: 2,
		compliance.StatusFrozen:        3,
	}
	for status, want := range expected {
		code, err := EncodeStatus(status)
		require.NoError(t, err)
		assert.Equal(t, want, code, status)
	}
}

func TestEncodeStatusRejectsUnknown(t *testing.T) {
	_, err := EncodeStatus(compliance.Status("PENDING"))
	assert.Error(t, err)
}

func TestDecodeStatusRejectsUnknownCode(t *testing.T) {
	_, err := DecodeStatus(7)
	assert.Error(t, err)
}

func TestValidateCodecRoundTrips(t *testing.T) {
	require.NoError(t, ValidateCodec())
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress("0x"+"ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12"))
	assert.False(t, ValidAddress(""))
	assert.False(t, ValidAddress("not-an-address"))
	assert.False(t, ValidAddress("0x1234"))
	assert.False(t, ValidAddress("ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12"))
}
