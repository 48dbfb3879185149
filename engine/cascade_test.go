package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/linkcard/models"
)

type fakeEngine struct {
	name     string
	calls    atomic.Int32
	inFlight *atomic.Int32
	maxSeen  *atomic.Int32
	result   *FetchResult
	err      error
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	f.calls.Add(1)
	if f.inFlight != nil {
		n := f.inFlight.Add(1)
		defer f.inFlight.Add(-1)
		for {
			m := f.maxSeen.Load()
			if n <= m || f.maxSeen.CompareAndSwap(m, n) {
				break
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	return &r, nil
}

// hangingEngine blocks until its request timeout or ctx expires.
type hangingEngine struct {
	calls atomic.Int32
}

func (h *hangingEngine) Name() string { return "hang" }

func (h *hangingEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	h.calls.Add(1)
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

// budgetEngine records how much of the ctx deadline was left when called.
type budgetEngine struct {
	left time.Duration
}

func (b *budgetEngine) Name() string { return "rod" }

func (b *budgetEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if dl, ok := ctx.Deadline(); ok {
		b.left = time.Until(dl)
	}
	return &FetchResult{HTML: "<html></html>", EngineName: "rod"}, nil
}

func noJitter() CascadeConfig {
	cfg := DefaultCascadeConfig()
	cfg.MinJitter, cfg.MaxJitter = 0, 0
	return cfg
}

func attemptsFor(engines ...Engine) []Attempt {
	var out []Attempt
	for i, e := range engines {
		out = append(out, Attempt{Identity: Identities[i%len(Identities)], Engine: e})
	}
	return out
}

func TestCascade_FirstSuccessWins(t *testing.T) {
	blocked := &fakeEngine{name: "a", err: &StatusError{StatusCode: 403}}
	ok := &fakeEngine{name: "b", result: &FetchResult{HTML: "<html></html>", StatusCode: 200}}
	never := &fakeEngine{name: "c", result: &FetchResult{}}

	c := NewCascade(attemptsFor(blocked, ok, never), nil, noJitter())
	res, err := c.Fetch(context.Background(), "https://shop.example.com/")

	require.NoError(t, err)
	assert.Equal(t, Identities[1].Name, res.EngineName)
	assert.EqualValues(t, 1, blocked.calls.Load())
	assert.EqualValues(t, 1, ok.calls.Load())
	assert.EqualValues(t, 0, never.calls.Load())
}

func TestCascade_BrowserFallback(t *testing.T) {
	a := &fakeEngine{name: "a", err: &StatusError{StatusCode: 403}}
	b := &fakeEngine{name: "b", err: &ChallengeError{Title: "Just a moment..."}}
	browser := &fakeEngine{name: "rod", result: &FetchResult{HTML: "<html></html>", EngineName: "rod"}}

	c := NewCascade(attemptsFor(a, b), browser, noJitter())
	res, err := c.Fetch(context.Background(), "https://shop.example.com/")

	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
	assert.EqualValues(t, 1, browser.calls.Load())
}

func TestCascade_AllFail(t *testing.T) {
	a := &fakeEngine{name: "a", err: &StatusError{StatusCode: 403}}
	browser := &fakeEngine{name: "rod", err: errors.New("no chrome")}

	c := NewCascade(attemptsFor(a), browser, noJitter())
	_, err := c.Fetch(context.Background(), "https://shop.example.com/")

	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.ErrCodeFetchFailed))
}

func TestCascade_NoBrowser(t *testing.T) {
	a := &fakeEngine{name: "a", err: &StatusError{StatusCode: 503}}

	c := NewCascade(attemptsFor(a, a), nil, noJitter())
	_, err := c.Fetch(context.Background(), "https://shop.example.com/")

	assert.True(t, models.HasCode(err, models.ErrCodeFetchFailed))
	assert.EqualValues(t, 2, a.calls.Load())
}

func TestCascade_Serial(t *testing.T) {
	var inFlight, maxSeen atomic.Int32
	var engines []Engine
	for range 4 {
		engines = append(engines, &fakeEngine{name: "x", err: errors.New("refused"), inFlight: &inFlight, maxSeen: &maxSeen})
	}

	c := NewCascade(attemptsFor(engines...), nil, noJitter())
	_, _ = c.Fetch(context.Background(), "https://shop.example.com/")

	assert.EqualValues(t, 1, maxSeen.Load())
}

func TestCascade_JitterBetweenAttempts(t *testing.T) {
	a := &fakeEngine{name: "a", err: errors.New("refused")}
	cfg := DefaultCascadeConfig()

	c := NewCascade(attemptsFor(a, a, a), nil, cfg)
	var pauses []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}
	_, _ = c.Fetch(context.Background(), "https://shop.example.com/")

	require.Len(t, pauses, 2)
	for _, d := range pauses {
		assert.GreaterOrEqual(t, d, cfg.MinJitter)
		assert.Less(t, d, cfg.MaxJitter)
	}
}

func TestCascade_ContextCanceled(t *testing.T) {
	a := &fakeEngine{name: "a", err: errors.New("refused")}
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	c := NewCascade(attemptsFor(a, a), nil, DefaultCascadeConfig())
	_, err := c.Fetch(ctx, "https://shop.example.com/")

	assert.True(t, models.HasCode(err, models.ErrCodeTimeout))
}

func TestCascade_AttemptTimeoutMovesOn(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(release)

	slow := NewHTTPEngineWithClient("slow", srv.Client())
	ok := &fakeEngine{name: "b", result: &FetchResult{HTML: "<html></html>", StatusCode: 200}}

	cfg := noJitter()
	cfg.AttemptTimeout = 100 * time.Millisecond
	c := NewCascade(attemptsFor(slow, ok), nil, cfg)

	start := time.Now()
	res, err := c.Fetch(context.Background(), srv.URL)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, Identities[1].Name, res.EngineName)
	assert.Less(t, elapsed, time.Second)
}

func TestCascade_KeepsBrowserTime(t *testing.T) {
	var engines []Engine
	hang := &hangingEngine{}
	for range 6 {
		engines = append(engines, hang)
	}
	browser := &budgetEngine{}

	cfg := noJitter()
	cfg.AttemptTimeout = 300 * time.Millisecond
	cfg.BrowserTimeout = time.Second
	c := NewCascade(attemptsFor(engines...), browser, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := c.Fetch(ctx, "https://shop.example.com/")

	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
	assert.Less(t, hang.calls.Load(), int32(6))
	assert.GreaterOrEqual(t, browser.left, 900*time.Millisecond)
}

func TestCascade_FirstAttemptIgnoresBrowserReserve(t *testing.T) {
	a := &fakeEngine{name: "a", result: &FetchResult{HTML: "<html></html>", StatusCode: 200}}
	browser := &budgetEngine{}

	cfg := noJitter()
	cfg.BrowserTimeout = time.Minute
	c := NewCascade(attemptsFor(a), browser, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := c.Fetch(ctx, "https://shop.example.com/")

	require.NoError(t, err)
	assert.Equal(t, Identities[0].Name, res.EngineName)
	assert.EqualValues(t, 1, a.calls.Load())
}
