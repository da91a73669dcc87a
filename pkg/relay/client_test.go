package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mev-engine/sandwich-arb-engine/pkg/bundle"
	"github.com/mev-engine/sandwich-arb-engine/pkg/signer"
)

func testAuth(t *testing.T) *signer.AuthSigner {
	t.Helper()
	auth, err := signer.NewAuthSigner()
	require.NoError(t, err)
	return auth
}

func TestSendBundleReturnsHashOnSuccess(t *testing.T) {
	auth := testAuth(t)

	var gotSigHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSigHeader = r.Header.Get("X-Flashbots-Signature")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]string{"bundleHash": "0xabc"},
		})
	}))
	defer server.Close()

	client := New(server.URL, auth)
	b := &bundle.Bundle{
		Entries:           []bundle.Entry{{SignedTxHex: "0x01", CanRevert: false}},
		TargetBlockNumber: 100,
	}

	hash, err := client.SendBundle(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", hash)
	assert.Contains(t, gotSigHeader, auth.Address().Hex())
}

func TestSendBundleSurfacesRelayError(t *testing.T) {
	auth := testAuth(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": -32000, "message": "bundle too old"},
		})
	}))
	defer server.Close()

	client := New(server.URL, auth)
	b := &bundle.Bundle{Entries: []bundle.Entry{{SignedTxHex: "0x01"}}, TargetBlockNumber: 1}

	_, err := client.SendBundle(context.Background(), b)
	require.Error(t, err)
	var relayErr *Error
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, -32000, relayErr.Code)
}
