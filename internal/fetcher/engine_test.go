package fetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Sample</title>
<item><title>Fed raises rates</title><link>https://example.com/fed</link>
<pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate></item>
</channel></rss>`

func testEngine(maxRetries int) *Engine {
	return NewEngine(zap.NewNop(), Options{
		Resolve: func(string) Policy {
			p := DefaultPolicy()
			p.MaxRetries = maxRetries
			p.BackoffBase = time.Millisecond
			p.Timeout = 2 * time.Second
			return p
		},
	})
}

func TestFetchForbiddenSwapsHeaders(t *testing.T) {
	var calls int32
	second := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		second <- r.Header.Clone()
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	res, err := testEngine(2).Fetch(context.Background(), Request{SourceID: "s", URL: srv.URL + "/feed"})
	require.NoError(t, err)
	require.NotNil(t, res.Feed)
	assert.Len(t, res.Feed.Items, 1)
	assert.Equal(t, 2, res.Attempts)
	h := <-second
	assert.Equal(t, crawlerUA, h.Get("User-Agent"))
	assert.Equal(t, srv.URL, h.Get("Referer"))
}

func TestFetchNotFoundAbortsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	_, err := testEngine(3).Fetch(context.Background(), Request{
		SourceID:   "s",
		URL:        srv.URL,
		Alternates: []string{srv.URL + "/alt"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindNotFound, fe.Kind)
	assert.Equal(t, 1, fe.Attempts)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchTriesAlternateBeforeRetry(t *testing.T) {
	var primary int32
	mux := http.NewServeMux()
	mux.HandleFunc("/main", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&primary, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/alt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleRSS))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := testEngine(2).Fetch(context.Background(), Request{
		SourceID:   "s",
		URL:        srv.URL + "/main",
		Alternates: []string{srv.URL + "/alt"},
	})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/alt", res.FinalURL)
	assert.Equal(t, []string{srv.URL + "/main", srv.URL + "/alt"}, res.Tried)
	assert.Equal(t, 2, res.Attempts)
	assert.EqualValues(t, 1, atomic.LoadInt32(&primary))
}

func TestFetchRedirectConsumesAttempt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleRSS))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := testEngine(0).Fetch(context.Background(), Request{SourceID: "s", URL: srv.URL + "/old"})
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusMovedPermanently, se.Code)

	res, err := testEngine(1).Fetch(context.Background(), Request{SourceID: "s", URL: srv.URL + "/old"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, srv.URL+"/new", res.FinalURL)
}

func TestFetchParseErrorIsTerminal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("this is not a feed"))
	}))
	defer srv.Close()

	_, err := testEngine(3).Fetch(context.Background(), Request{SourceID: "s", URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchRawModeUsesJSONHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte(`{"articles":[]}`))
	}))
	defer srv.Close()

	res, err := testEngine(0).Fetch(context.Background(), Request{
		SourceID: "newsapi",
		URL:      srv.URL,
		Raw:      true,
		Headers:  map[string]string{"X-Api-Key": "secret"},
	})
	require.NoError(t, err)
	assert.Nil(t, res.Feed)
	assert.JSONEq(t, `{"articles":[]}`, string(res.Body))
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testEngine(2).Fetch(context.Background(), Request{SourceID: "s", URL: srv.URL})
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 3, fe.Attempts)
	assert.Equal(t, []string{srv.URL}, fe.URLs)
	assert.Equal(t, KindGeneric, fe.Kind)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Contains(t, fe.Error(), "after 3 attempt(s)")
}

func TestFetchTimeoutClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	e := NewEngine(zap.NewNop(), Options{Resolve: func(string) Policy {
		p := DefaultPolicy()
		p.MaxRetries = 0
		p.Timeout = 20 * time.Millisecond
		return p
	}})
	_, err := e.Fetch(context.Background(), Request{SourceID: "slow", URL: srv.URL})
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindTimeout, fe.Kind)
}

func TestFetchHostRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	e := NewEngine(zap.NewNop(), Options{HostRPS: 20, HostBurst: 1})
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := e.Fetch(context.Background(), Request{SourceID: "s", URL: srv.URL})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindNotFound, Classify(&StatusError{Code: http.StatusNotFound}))
	assert.Equal(t, KindNotFound, Classify(&StatusError{Code: http.StatusGone}))
	assert.Equal(t, KindForbidden, Classify(&StatusError{Code: http.StatusForbidden}))
	assert.Equal(t, KindGeneric, Classify(&StatusError{Code: http.StatusBadGateway}))
	assert.Equal(t, KindTimeout, Classify(context.DeadlineExceeded))
	assert.Equal(t, KindDNS, Classify(&net.DNSError{Err: "no such host", Name: "nowhere.invalid"}))
	assert.Equal(t, KindParse, Classify(ErrParse))
	assert.Equal(t, KindGeneric, Classify(errors.New("boom")))
}

func TestResolvePolicy(t *testing.T) {
	p := ResolvePolicy("https://www.reuters.com/rss/topNews")
	assert.True(t, p.Direct)
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, 40*time.Second, p.Timeout)
	assert.Equal(t, "https://www.reuters.com/", p.Headers["Referer"])

	assert.Len(t, ResolvePolicy("https://apnews.com/index.rss").Alternates, 3)
	assert.Equal(t, "https://rss.dw.com/rdf/rss-en-all", ResolvePolicy("https://www.dw.com/en/top-stories/rss").Alternates[0])

	d := ResolvePolicy("https://notreuters.com/feed")
	assert.False(t, d.Direct)
	assert.Equal(t, DefaultTimeout, d.Timeout)
	assert.Equal(t, DefaultMaxRetries, d.MaxRetries)
	assert.True(t, strings.HasPrefix(d.Headers["Accept"], "application/rss+xml"))

	// 返回副本，修改不影响后续解析
	p.Headers["Referer"] = "changed"
	assert.Equal(t, "https://www.reuters.com/", ResolvePolicy("https://reuters.com/x").Headers["Referer"])
}

func TestRedactHidesAPIKeys(t *testing.T) {
	got := redact("https://gnews.io/api/v4/top-headlines?apikey=s3cret&lang=en")
	assert.NotContains(t, got, "s3cret")
	assert.Contains(t, got, "lang=en")
	assert.Equal(t, "https://example.com/feed", redact("https://example.com/feed"))
}

func TestBackoffDoubles(t *testing.T) {
	base := 100 * time.Millisecond
	for n, want := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond} {
		assert.Equal(t, want, backoff(base, n), "n=%d", n)
	}
	assert.Equal(t, DefaultBackoffBase, backoff(0, 0))
}

func TestFetchWaitsExponentiallyBetweenRetries(t *testing.T) {
	stamps := make(chan time.Time, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stamps <- time.Now()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	const base = 30 * time.Millisecond
	e := NewEngine(zap.NewNop(), Options{
		Resolve: func(string) Policy {
			p := DefaultPolicy()
			p.MaxRetries = 2
			p.BackoffBase = base
			p.Timeout = 2 * time.Second
			return p
		},
	})
	_, err := e.Fetch(context.Background(), Request{SourceID: "s", URL: srv.URL})
	require.Error(t, err)

	close(stamps)
	var got []time.Time
	for ts := range stamps {
		got = append(got, ts)
	}
	require.Len(t, got, 3)
	assert.GreaterOrEqual(t, got[1].Sub(got[0]), base)
	assert.GreaterOrEqual(t, got[2].Sub(got[1]), 2*base)
}

func TestFetchDirectModeReturnsRawBody(t *testing.T) {
	const page = `<html><body>not a feed</body></html>`
	sent := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent <- r.Header.Clone()
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	e := NewEngine(zap.NewNop(), Options{
		Resolve: func(string) Policy {
			p := DefaultPolicy()
			p.Direct = true
			p.Timeout = 2 * time.Second
			return p
		},
	})
	res, err := e.Fetch(context.Background(), Request{SourceID: "s", URL: srv.URL})
	require.NoError(t, err)
	assert.True(t, res.Direct)
	assert.Nil(t, res.Feed)
	assert.Equal(t, page, string(res.Body))

	h := <-sent
	assert.Equal(t, "en-US,en;q=0.9", h.Get("Accept-Language"))
	assert.Equal(t, "no-cache", h.Get("Cache-Control"))
}
