package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientSendsCommand(t *testing.T) {
	var received commandEnvelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/command", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(commandResult{Success: true})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second)
	err := client.EndEvent(context.Background(), EventRef{EventID: "evt-1", InstanceID: "inst-1"})

	require.NoError(t, err)
	assert.Equal(t, commandEnd, received.Type)
	assert.NotEmpty(t, received.ID)
}

func TestHTTPClientRejectedCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(commandResult{Success: false, Message: "event already ended"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second)
	err := client.EndEvent(context.Background(), EventRef{EventID: "evt-1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, err.Error(), "event already ended")
}

func TestHTTPClientUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second)
	err := client.CheckInEvent(context.Background(), EventRef{EventID: "evt-1"})

	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestHTTPClientTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewHTTPClient(server.URL, 50*time.Millisecond)
	start := time.Now()
	err := client.CreateEvent(context.Background(), CreateEventRequest{Subject: "Quick sync"})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
