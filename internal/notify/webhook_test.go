package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_Success(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 2*time.Second, nil)
	ok := n.Emit("payment_approved", map[string]any{
		"transactionId": "TXN1234",
		"amount":        "100.00",
	})

	assert.True(t, ok)
	assert.Equal(t, "/payment_approved", gotPath)
	assert.Equal(t, "TXN1234", gotPayload["transactionId"])
}

func TestEmit_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 2*time.Second, nil)
	assert.False(t, n.Emit("payment_approved", map[string]any{}))
}

func TestEmit_Unreachable(t *testing.T) {
	n := NewWebhookNotifier("http://127.0.0.1:1", 500*time.Millisecond, nil)
	assert.False(t, n.Emit("payment_approved", map[string]any{}))
}

func TestEmit_DisabledWhenUnconfigured(t *testing.T) {
	n := NewWebhookNotifier("", time.Second, nil)
	assert.False(t, n.Emit("payment_approved", map[string]any{}))
}
