package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifyPingsURL(t *testing.T) {
	t.Parallel()

	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Equal(t, http.MethodGet, r.Method)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second, zap.NewNop())
	require.NoError(t, w.Notify(context.Background()))
	require.True(t, called)
}

func TestNotifyNon200IsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, time.Second, zap.NewNop())
	require.Error(t, w.Notify(context.Background()))
}

func TestNotifyEmptyURLIsNoop(t *testing.T) {
	t.Parallel()

	w := NewWebhook("", time.Second, zap.NewNop())
	require.NoError(t, w.Notify(context.Background()))
}
