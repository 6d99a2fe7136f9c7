package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoNode(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			var req jsonRPCRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
			if req.Method == "eth_fail" {
				resp["error"] = map[string]interface{}{"code": -32000, "message": "boom"}
			} else {
				resp["result"] = req.Method
			}
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	}))
}

func TestWebSocketClient_Call(t *testing.T) {
	server := newEchoNode(t)
	defer server.Close()

	client, err := NewClient(&Config{Endpoint: server.URL, Protocol: ProtocolWebSocket, Timeout: 5})
	require.NoError(t, err)
	defer client.Close()

	var wg sync.WaitGroup
	for _, method := range []string{"eth_chainId", "eth_blockNumber", "eth_gasPrice", "net_version"} {
		wg.Add(1)
		go func(method string) {
			defer wg.Done()
			var got string
			assert.NoError(t, CallFor(context.Background(), client, &got, method))
			assert.Equal(t, method, got)
		}(method)
	}
	wg.Wait()

	_, err = client.Call(context.Background(), "eth_fail")
	rpcErr, ok := IsRPCError(err)
	require.True(t, ok)
	assert.Equal(t, -32000, rpcErr.ErrorCode())
}

func TestWebSocketClient_Closed(t *testing.T) {
	server := newEchoNode(t)
	defer server.Close()

	client, err := NewWebSocketClient(&Config{Endpoint: server.URL, Timeout: 5})
	require.NoError(t, err)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = client.Call(context.Background(), "eth_chainId")
	var cliErr *Error
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, ErrCodeClosed, cliErr.Code)
}

func TestWebsocketEndpoint(t *testing.T) {
	assert.Equal(t, "ws://127.0.0.1:8546", websocketEndpoint("http://127.0.0.1:8546"))
	assert.Equal(t, "wss://node.example", websocketEndpoint("https://node.example"))
	assert.Equal(t, "ws://node:8546", websocketEndpoint("node:8546"))
	assert.Equal(t, "wss://node", websocketEndpoint("wss://node"))
}
