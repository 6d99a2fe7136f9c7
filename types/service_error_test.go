package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "detail", body: `{"detail":"Safe=0xf9A2FAa4E3b140ad42AAE8Cac4958cFf38Ab08fD does not exist or it's still not indexed"}`, want: "Safe=0xf9A2FAa4E3b140ad42AAE8Cac4958cFf38Ab08fD does not exist or it's still not indexed"},
		{name: "non field errors", body: `{"nonFieldErrors":["Signing owner is not an owner of the Safe"]}`, want: "Signing owner is not an owner of the Safe"},
		{name: "field errors sorted", body: `{"safe":["bad safe"],"delegate":["bad delegate"]}`, want: "bad delegate"},
		{name: "plain text", body: "Bad Gateway", want: "Bad Gateway"},
		{name: "empty", body: "", want: "service responded with status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseServiceError(502, []byte(tt.body), "trace-1")
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, "trace-1", err.TraceID)
		})
	}
}

func TestServiceError_IsServiceRejected(t *testing.T) {
	err := fmt.Errorf("add delegate: %w", ParseServiceError(400, []byte(`{"detail":"Signing owner is not an owner of the Safe"}`), ""))

	assert.ErrorIs(t, err, ErrServiceRejected)
	svcErr, ok := IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.True(t, svcErr.Contains("not an owner"))
}
