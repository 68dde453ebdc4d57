package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string, retries int) *Client {
	return NewClient(Config{
		URL:        url,
		Timeout:    time.Second,
		RetryDelay: time.Millisecond,
		Retries:    retries,
	})
}

func TestCall_ReadEncodesQuery(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		json.NewEncoder(w).Encode(Response{Status: StatusSuccess})
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	resp, err := c.Call(context.Background(), MethodRead, "getRequests", map[string]interface{}{"owner": "u-1"})

	require.NoError(t, err)
	assert.True(t, resp.OK())

	u, err := http.NewRequest(http.MethodGet, srv.URL+gotURL, nil)
	require.NoError(t, err)
	q := u.URL.Query()
	assert.Equal(t, "getRequests", q.Get("action"))
	assert.Equal(t, "u-1", q.Get("owner"))
	assert.NotEmpty(t, q.Get("nonce"), "read calls must carry a cache-defeating nonce")
}

func TestCall_WriteSendsActionEnvelope(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(Response{
			Status: StatusSuccess,
			Data:   map[string]interface{}{"id": "REQ-1"},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	resp, err := c.Call(context.Background(), MethodWrite, "createRequest", map[string]interface{}{"topic": "x"})

	require.NoError(t, err)
	assert.Equal(t, "REQ-1", resp.Data["id"])
	assert.Equal(t, "createRequest", got["action"])
	payload, ok := got["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "x", payload["topic"])
}

func TestCall_RetriesTransportFailures(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2)
	_, err := c.Call(context.Background(), MethodRead, "getRequests", nil)

	require.Error(t, err)
	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindNetwork, ce.Kind)
	assert.EqualValues(t, 3, atomic.LoadInt32(&attempts), "budget of 2 retries allows 3 attempts total")
	assert.Equal(t, 3, ce.Attempts)
}

func TestCall_StopsOnSuccess(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(Response{Status: StatusSuccess})
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5)
	resp, err := c.Call(context.Background(), MethodRead, "getRequests", nil)

	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
}

func TestCall_ApplicationErrorNotRetried(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		json.NewEncoder(w).Encode(Response{Status: StatusError, Message: "quota exceeded"})
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	_, err := c.Call(context.Background(), MethodWrite, "createRequest", nil)

	require.Error(t, err)
	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindApplication, ce.Kind)
	assert.Equal(t, "quota exceeded", ce.Message)
	assert.Equal(t, "quota exceeded", ce.UserMessage())
	assert.EqualValues(t, 1, atomic.LoadInt32(&attempts), "application errors are final")
}

func TestCall_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer srv.Close()

	c := NewClient(Config{
		URL:        srv.URL,
		Timeout:    20 * time.Millisecond,
		RetryDelay: time.Millisecond,
		Retries:    1,
	})
	_, err := c.Call(context.Background(), MethodRead, "getRequests", nil)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsApplication(err))
}

func TestCall_MalformedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	_, err := c.Call(context.Background(), MethodRead, "getRequests", nil)

	require.Error(t, err)
	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindNetwork, ce.Kind)
}
