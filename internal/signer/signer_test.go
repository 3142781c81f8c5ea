package signer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictrisk/engine/internal/domain"
)

func TestSignBet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sign-bet", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "0xplayer", req["player"])
		assert.Equal(t, float64(1), req["outcome"])

		w.Write([]byte(`{
			"signature": "0xdeadbeef",
			"bet": {
				"player": "0xplayer",
				"market": "https://polymarket.com/event/e/m",
				"outcome": 1,
				"amount": "1000000000000000000",
				"nonce": "7",
				"deadline": "1999999999"
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	bet, err := c.SignBet(context.Background(), "0xplayer", "https://polymarket.com/event/e/m", 1, "1000000000000000000")
	require.NoError(t, err)

	assert.Equal(t, uint8(1), bet.Outcome)
	assert.Equal(t, "0xdeadbeef", bet.Signature)
	assert.Equal(t, "7", bet.Nonce)
	assert.Equal(t, "1999999999", bet.Deadline)
}

func TestSignBetServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "market not allowed"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.SignBet(context.Background(), "0xplayer", "url", 0, "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSignerFailed)
	assert.Contains(t, err.Error(), "market not allowed")
}

func TestSignBetIncompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"signature": ""}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.SignBet(context.Background(), "0xplayer", "url", 0, "1")
	assert.ErrorIs(t, err, domain.ErrSignerFailed)
}
