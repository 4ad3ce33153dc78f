package blockchain

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestAnchorer_SendProof(t *testing.T) {
	blockhash := make([]byte, 32)
	blockhash[0] = 7
	encodedHash := base58.Encode(blockhash)

	rpc, srv := newFakeRPC(t, map[string]func(gjson.Result) string{
		"getLatestBlockhash": func(gjson.Result) string {
			return `{"jsonrpc":"2.0","id":1,"result":{"value":{"blockhash":"` + encodedHash + `"}}}`
		},
		"sendTransaction": func(gjson.Result) string {
			return `{"jsonrpc":"2.0","id":2,"result":"sig-123"}`
		},
	})

	payerPub, payerKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	wallet, err := NewWallet(payerKey)
	require.NoError(t, err)
	recipientPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	anchorer := NewAnchorer(NewClient(srv.URL, "confirmed", newTestLogger()), wallet, 1_000_000, newTestLogger())

	sig, err := anchorer.SendProof(context.Background(), base58.Encode(recipientPub))
	require.NoError(t, err)
	assert.Equal(t, "sig-123", sig)

	tx, err := base64.StdEncoding.DecodeString(rpc.last().Get("params.0").String())
	require.NoError(t, err)
	message := tx[65:]
	assert.True(t, ed25519.Verify(payerPub, message, tx[1:65]))
	assert.Equal(t, []byte(recipientPub), message[36:68])
	assert.Equal(t, blockhash, message[100:132])
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(message[len(message)-8:]))
}

func TestAnchorer_SendProofInvalidRecipient(t *testing.T) {
	_, key, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	wallet, err := NewWallet(key)
	require.NoError(t, err)
	anchorer := NewAnchorer(NewClient("http://127.0.0.1:0", "confirmed", newTestLogger()), wallet, 1, newTestLogger())

	_, err = anchorer.SendProof(context.Background(), "not-a-key")
	assert.ErrorContains(t, err, "invalid recipient")
}

func TestAnchorer_SendProofBlockhashFailure(t *testing.T) {
	_, srv := newFakeRPC(t, map[string]func(gjson.Result) string{
		"getLatestBlockhash": func(gjson.Result) string {
			return `{"jsonrpc":"2.0","id":1,"error":{"code":-32005,"message":"Node is behind"}}`
		},
	})
	_, key, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	wallet, err := NewWallet(key)
	require.NoError(t, err)
	recipient, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	anchorer := NewAnchorer(NewClient(srv.URL, "confirmed", newTestLogger()), wallet, 1, newTestLogger())
	_, err = anchorer.SendProof(context.Background(), base58.Encode(recipient))
	var rpcErr RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, int64(-32005), rpcErr.Code)
}
