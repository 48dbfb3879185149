package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver_Signed(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewNotifier()
	ev := &Event{Type: EventBatchCompleted, JobID: "job-1", Timestamp: 1, Data: map[string]int{"total": 2}}
	require.NoError(t, n.Deliver(context.Background(), srv.URL, "s3cret", ev))

	assert.True(t, Verify("s3cret", gotBody, gotSig))
	assert.False(t, Verify("other", gotBody, gotSig))

	var decoded Event
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, EventBatchCompleted, decoded.Type)
	assert.Equal(t, "job-1", decoded.JobID)
}

func TestDeliver_NoSecretNoSignature(t *testing.T) {
	var hadSig atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hadSig.Store(r.Header.Get(SignatureHeader) != "")
	}))
	defer srv.Close()

	require.NoError(t, NewNotifier().Deliver(context.Background(), srv.URL, "", &Event{Type: EventBatchCompleted}))
	assert.False(t, hadSig.Load())
}

func TestDeliver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewNotifier().Deliver(context.Background(), srv.URL, "", &Event{Type: EventBatchCompleted})
	assert.Error(t, err)
}

func TestDeliverAsync_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier()
	n.delays = []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond}

	done := make(chan error, 1)
	n.DeliverAsync(srv.URL, "s", &Event{Type: EventBatchCompleted, JobID: "j"}, func(err error) { done <- err })

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("delivery did not finish")
	}
	assert.EqualValues(t, 3, calls.Load())
}

func TestSignAndVerify(t *testing.T) {
	body := []byte(`{"a":1}`)
	sig := Sign("k", body)

	assert.Contains(t, sig, "sha256=")
	assert.True(t, Verify("k", body, sig))
	assert.False(t, Verify("k", []byte(`{"a":2}`), sig))
	assert.False(t, Verify("k", body, "md5=abc"))
}
