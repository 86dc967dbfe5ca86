package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSender_Send(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewHTTPSender(Config{APIURL: srv.URL, APIKey: "key-1", From: "BConnect"}, srv.Client())
	require.NoError(t, s.Send(context.Background(), "+221771234567", "Code: 123456"))

	assert.Equal(t, "+221771234567", got.To)
	assert.Equal(t, "BConnect", got.From)
	assert.Equal(t, "Code: 123456", got.Text)
}

func TestHTTPSender_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewHTTPSender(Config{APIURL: srv.URL}, srv.Client())
	assert.Error(t, s.Send(context.Background(), "771234567", "x"))
}

func TestNewSender_FallsBackToLog(t *testing.T) {
	assert.IsType(t, LogSender{}, NewSender(Config{}))
}
