package reconciler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengate/pkg/platform/sentinel"
)

func TestRPCClientSubmitsSigningWallet(t *testing.T) {
	var captured struct {
		Method string       `json:"method"`
		Params updateParams `json:"params"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"tx_hash":"0xfeed","block_number":12}}`))
	}))
	defer srv.Close()

	client := NewRPCClient(srv.URL, 31337, wallet(999), "treasury-signer", time.Second)
	receipt, err := client.BatchUpdateStatus(context.Background(),
		[]string{wallet(1), wallet(2)}, []uint8{1, 3})
	require.NoError(t, err)

	assert.Equal(t, "0xfeed", receipt.TxHash)
	assert.Equal(t, uint64(12), receipt.BlockNumber)
	assert.Equal(t, "registry_batchUpdateStatus", captured.Method)
	assert.Equal(t, int64(31337), captured.Params.ChainID)
	assert.Equal(t, wallet(999), captured.Params.Contract)
	assert.Equal(t, "treasury-signer", captured.Params.Wallet)
	assert.Equal(t, []string{wallet(1), wallet(2)}, captured.Params.Addresses)
	assert.Equal(t, []uint8{1, 3}, captured.Params.Codes)
}

func TestRPCClientMapsRevertToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":{"code":-32000,"message":"execution reverted"}}`))
	}))
	defer srv.Close()

	client := NewRPCClient(srv.URL, 31337, wallet(999), "", time.Second)
	_, err := client.UpdateStatus(context.Background(), wallet(1), 1)
	assert.ErrorIs(t, err, sentinel.ErrReverted)
}
