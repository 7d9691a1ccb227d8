package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagicLinkMessage(t *testing.T) {
	msg, err := MagicLinkMessage("Staff@Crawdale.test", "http://localhost/auth/callback?code=abc", "15m0s")
	require.NoError(t, err)

	assert.Equal(t, "Staff@Crawdale.test", msg.To)
	assert.Equal(t, magicLinkSubject, msg.Subject)
	assert.Contains(t, msg.Text, "Hello staff@crawdale.test")
	assert.Contains(t, msg.Text, "http://localhost/auth/callback?code=abc")
	assert.Contains(t, msg.Text, "15m0s")
}

func TestHTTPSender_Send(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewHTTPSender(HTTPSenderConfig{URL: srv.URL, APIKey: "key-1", From: "desk@crawdale.test"})
	err := sender.Send(context.Background(), Message{To: "guest@crawdale.test", Subject: "hi", Text: "body"})
	require.NoError(t, err)

	assert.Equal(t, "guest@crawdale.test", got.To)
	assert.Equal(t, "desk@crawdale.test", got.From)
	assert.Equal(t, "body", got.Text)
}

func TestHTTPSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":"invalid_recipient","message":"mailbox does not exist"}`))
	}))
	defer srv.Close()

	sender := NewHTTPSender(HTTPSenderConfig{URL: srv.URL})
	err := sender.Send(context.Background(), Message{To: "x@y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox does not exist")
}

func TestHTTPSender_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewHTTPSender(HTTPSenderConfig{URL: srv.URL})
	require.NoError(t, sender.Send(context.Background(), Message{To: "x@y"}))
	assert.Equal(t, int32(2), calls.Load())
}

func TestOutbox(t *testing.T) {
	box := NewOutbox()
	_, ok := box.Last()
	assert.False(t, ok)

	require.NoError(t, box.Send(context.Background(), Message{To: "a"}))
	require.NoError(t, box.Send(context.Background(), Message{To: "b"}))
	last, ok := box.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last.To)
	assert.Len(t, box.Messages(), 2)

	box.FailWith(errors.New("smtp down"))
	assert.EqualError(t, box.Send(context.Background(), Message{}), "smtp down")
}
