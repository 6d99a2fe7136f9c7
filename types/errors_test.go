package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSDKError_IsMatchesByCode(t *testing.T) {
	err := ErrInvalidAddress.WithDetail("%q is not a 20-byte hex address", "0x1234")

	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.NotErrorIs(t, err, ErrChecksumMismatch)
	assert.Contains(t, err.Error(), "0x1234")

	wrapped := fmt.Errorf("build enable module: %w", err)
	assert.ErrorIs(t, wrapped, ErrInvalidAddress)
}

func TestSDKError_ReservedFamily(t *testing.T) {
	assert.ErrorIs(t, ErrZeroAddress, ErrReservedAddress)
	assert.ErrorIs(t, ErrSentinelAddress, ErrReservedAddress)
	assert.NotErrorIs(t, ErrZeroAddress, ErrSentinelAddress)

	detailed := ErrSentinelAddress.WithDetail("module")
	assert.ErrorIs(t, detailed, ErrReservedAddress)
}

func TestSDKError_Wrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrContractNotDeployed.Wrap(cause)

	assert.ErrorIs(t, err, ErrContractNotDeployed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "contract not deployed: connection refused", err.Error())
}
