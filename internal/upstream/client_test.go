package upstream_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isabella232/tmg-ucm/infrastructure/circuitbreaker"
	apperrors "github.com/isabella232/tmg-ucm/infrastructure/errors"
	"github.com/isabella232/tmg-ucm/infrastructure/logger"
	"github.com/isabella232/tmg-ucm/internal/content"
	"github.com/isabella232/tmg-ucm/internal/upstream"
)

func TestClient_Search(t *testing.T) {
	t.Parallel()

	var gotKey string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, content.SearchPath, r.URL.Path)
		gotKey = r.Header.Get("app_key")
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		gotBody = body

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"hits":[{"content":{"headline":"Found"}}]}`)
	}))
	t.Cleanup(srv.Close)

	c := upstream.New(upstream.Config{APIEndpoint: srv.URL + "/", APIKey: "secret"}, logger.NewNop())

	res, err := c.Search(context.Background(), "https://www.telegraph.co.uk/news/story/")
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Found", res.Hits[0].Content.Headline)
	assert.Equal(t, "secret", gotKey)
	assert.JSONEq(t, `{"booleanFilter":{"operator":"AND","filters":[
		{"operator":"AND","ranges":[{"field":"metadata.extensions.key","operator":"EQ","value":"url"}]},
		{"operator":"AND","ranges":[{"field":"metadata.extensions.value","operator":"EQ","value":"https://www.telegraph.co.uk/news/story/"}]}
	]}}`, string(gotBody))
}

func TestClient_SearchPropagatesStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	c := upstream.New(upstream.Config{APIEndpoint: srv.URL}, logger.NewNop())

	_, err := c.Search(context.Background(), "https://example.com/x")
	require.Error(t, err)

	code, ok := apperrors.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestClient_Homepage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		_, _ = io.WriteString(w, "<html></html>")
	}))
	t.Cleanup(srv.Close)

	c := upstream.New(upstream.Config{ContentEndpoint: srv.URL + "/"}, logger.NewNop())

	body, err := c.Homepage(context.Background())
	require.NoError(t, err)
	defer body.Close()

	b, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(b))
}

func TestParseImageHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  upstream.ImageHints
	}{
		{name: "none", query: "", want: upstream.ImageHints{}},
		{name: "width and height", query: "imwidth=640&imheight=480", want: upstream.ImageHints{Width: 640, Height: 480}},
		{name: "thumbnail policy", query: "imwidth=640&impolicy=utilities-thumbnail", want: upstream.ImageHints{Width: 60}},
		{name: "policy suppresses height", query: "imheight=480&impolicy=other", want: upstream.ImageHints{}},
		{name: "invalid numbers ignored", query: "imwidth=abc&imheight=-4", want: upstream.ImageHints{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, upstream.ParseImageHints(q))
		})
	}
}

func TestClient_Image(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/content/photo.jpg", r.URL.Path)
		assert.Equal(t, "60", r.URL.Query().Get("width"))
		assert.Empty(t, r.URL.Query().Get("height"))
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8})
	}))
	t.Cleanup(srv.Close)

	c := upstream.New(upstream.Config{ContentEndpoint: srv.URL}, logger.NewNop())

	resp, err := c.Image(context.Background(), "/content/photo.jpg", upstream.ImageHints{Width: 60})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
}

func TestClient_StaticURL(t *testing.T) {
	t.Parallel()

	c := upstream.New(upstream.Config{StaticUpstream: "https://static.example.com/", CacheGen: "7"}, logger.NewNop())

	tests := []struct {
		in   string
		want string
	}{
		{in: "/styles/styles.css", want: "https://static.example.com/styles/styles.css?gen=7"},
		{in: "/nav.plain.html?x=1", want: "https://static.example.com/nav.plain.html?gen=7&x=1"},
		{in: "/fonts/deep/austin.woff", want: "https://static.example.com/austin.woff"},
		{in: "/fonts/austin.woff2", want: "https://static.example.com/fonts/austin.woff2?gen=7"},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, c.StaticURL(u), tt.in)
	}
}

func TestClient_StaticForwardsHost(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gateway.example.com", r.Header.Get("X-Forwarded-Host"))
		assert.Empty(t, r.Header.Get("Cookie"))
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := upstream.New(upstream.Config{StaticUpstream: srv.URL}, logger.NewNop())

	in := httptest.NewRequest(http.MethodGet, "http://gateway.example.com/nav.plain.html", nil)
	in.Header.Set("Cookie", "token=abc")

	resp, err := c.Static(context.Background(), in)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type recordingObserver struct {
	statuses []int
	states   []int
}

func (o *recordingObserver) ObserveUpstream(_ string, status int, _ time.Duration) {
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) SetBreakerState(_ string, state int) {
	o.states = append(o.states, state)
}

func TestClient_BreakerOpensOnTransportErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	c := upstream.New(
		upstream.Config{ContentEndpoint: deadURL, Timeout: time.Second},
		logger.NewNop(),
		upstream.WithObserver(obs),
		upstream.WithBreakerConfig(circuitbreaker.Config{FailureThreshold: 2, Timeout: time.Minute}),
	)

	for range 2 {
		_, err := c.Homepage(context.Background())
		require.Error(t, err)
		assert.False(t, errors.Is(err, circuitbreaker.ErrCircuitOpen))
	}

	_, err := c.Homepage(context.Background())
	require.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, []int{0, 0, 0}, obs.statuses)
	assert.Equal(t, []int{int(circuitbreaker.StateOpen)}, obs.states)
}
