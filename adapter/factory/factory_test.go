package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safekit/safe-client-sdk-go/adapter/adaptertest"
	"github.com/safekit/safe-client-sdk-go/types"
)

func TestParseLibrary(t *testing.T) {
	tests := []struct {
		name string
		want Library
	}{
		{"geth", LibraryGeth},
		{"ethers", LibraryGeth},
		{" GETH ", LibraryGeth},
		{"jsonrpc", LibraryJSONRPC},
		{"web3", LibraryJSONRPC},
		{"Web3", LibraryJSONRPC},
	}
	for _, tt := range tests {
		got, err := ParseLibrary(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewAdapter_UnsupportedLibrary(t *testing.T) {
	node := adaptertest.NewNode(t, 97)

	for _, lib := range []string{"", "viem", "truffle"} {
		_, err := NewAdapter(context.Background(), Config{Library: lib, RPCURL: node.URL()})
		assert.ErrorIs(t, err, types.ErrUnsupportedAdapter, lib)
	}
	assert.Equal(t, 0, node.CallCount())
}
