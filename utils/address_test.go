package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safekit/safe-client-sdk-go/types"
)

// EIP-55 规范中的测试向量
var checksumVectors = []string{
	"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
	"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr error
	}{
		{name: "checksummed", addr: checksumVectors[0]},
		{name: "digits only", addr: "0x0000000000000000000000000000000000001234"},
		{name: "empty", addr: "", wantErr: types.ErrInvalidAddress},
		{name: "short", addr: "0x1234", wantErr: types.ErrInvalidAddress},
		{name: "missing prefix", addr: strings.TrimPrefix(checksumVectors[0], "0x"), wantErr: types.ErrInvalidAddress},
		{name: "non hex", addr: "0xZZAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", wantErr: types.ErrInvalidAddress},
		{name: "too long", addr: checksumVectors[0] + "00", wantErr: types.ErrInvalidAddress},
		{name: "lowercase", addr: strings.ToLower(checksumVectors[0]), wantErr: types.ErrChecksumMismatch},
		{name: "uppercase", addr: "0x" + strings.ToUpper(checksumVectors[0][2:]), wantErr: types.ErrChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestValidateAddress_ChecksumVectors(t *testing.T) {
	for _, addr := range checksumVectors {
		require.NoError(t, ValidateAddress(addr), addr)
		// 任意一个字母翻转大小写都必须被拒绝
		flipped := flipFirstLetter(addr)
		require.NotEqual(t, addr, flipped)
		err := ValidateAddress(flipped)
		assert.ErrorIs(t, err, types.ErrChecksumMismatch, flipped)
	}
}

func TestAssertMutable(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr error
	}{
		{name: "regular address", addr: checksumVectors[1]},
		{name: "zero address", addr: "0x0000000000000000000000000000000000000000", wantErr: types.ErrZeroAddress},
		{name: "sentinel address", addr: "0x0000000000000000000000000000000000000001", wantErr: types.ErrSentinelAddress},
		{name: "invalid length", addr: "0x123", wantErr: types.ErrInvalidAddress},
		{name: "bad checksum", addr: strings.ToLower(checksumVectors[1]), wantErr: types.ErrChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AssertMutable(tt.addr)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAssertMutable_ReservedAddressFamily(t *testing.T) {
	for _, addr := range []common.Address{ZeroAddress, SentinelAddress} {
		err := AssertMutable(addr.Hex())
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrReservedAddress)
		assert.True(t, IsReservedAddress(addr))
	}
	assert.False(t, IsReservedAddress(common.HexToAddress(checksumVectors[2])))
}

func TestPreviousInList(t *testing.T) {
	a := common.HexToAddress(checksumVectors[0])
	b := common.HexToAddress(checksumVectors[1])
	c := common.HexToAddress(checksumVectors[2])
	list := []common.Address{a, b}

	prev, ok := PreviousInList(list, a)
	require.True(t, ok)
	assert.Equal(t, SentinelAddress, prev)

	prev, ok = PreviousInList(list, b)
	require.True(t, ok)
	assert.Equal(t, a, prev)

	_, ok = PreviousInList(list, c)
	assert.False(t, ok)
	assert.True(t, ContainsAddress(list, b))
	assert.False(t, ContainsAddress(list, c))
}

func flipFirstLetter(addr string) string {
	b := []byte(addr)
	for i := 2; i < len(b); i++ {
		switch {
		case b[i] >= 'a' && b[i] <= 'f':
			b[i] -= 'a' - 'A'
			return string(b)
		case b[i] >= 'A' && b[i] <= 'F':
			b[i] += 'a' - 'A'
			return string(b)
		}
	}
	return addr
}
