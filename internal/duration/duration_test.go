package duration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/metrics"
	"github.com/spigell/assessment-recommender/internal/pages"
)

const detailPage = `<html><body>
<h4>Description</h4><p>Measures numerical reasoning.</p>
<h4>Assessment length</h4><p>Approximate Completion Time in minutes = 45</p>
</body></html>`

type fakeSource struct {
	name  string
	html  string
	err   error
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(context.Context, string) (string, error) {
	f.calls++
	return f.html, f.err
}

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		html    string
		minutes int
		ok      bool
	}{
		{name: "heading and paragraph", html: detailPage, minutes: 45, ok: true},
		{
			name:    "case insensitive and nested paragraph",
			html:    `<div><h4> Assessment length </h4></div><div><span>x</span><p>approximate completion time in MINUTES = 30</p></div>`,
			minutes: 30,
			ok:      true,
		},
		{name: "heading missing", html: `<p>Approximate Completion Time in minutes = 45</p>`},
		{name: "pattern missing", html: `<h4>Assessment length</h4><p>Untimed</p>`},
		{name: "paragraph missing", html: `<h4>Assessment length</h4><div>Approximate Completion Time in minutes = 45</div>`},
		{name: "heading text must match exactly", html: `<h4>Assessment length and format</h4><p>Approximate Completion Time in minutes = 45</p>`},
		{name: "empty", html: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			minutes, ok := Parse(tc.html)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.minutes, minutes)
		})
	}
}

func TestResolveStaticTierSkipsRenderer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(detailPage))
	}))
	defer server.Close()

	hits := testutil.ToFloat64(metrics.DurationLookups.WithLabelValues(TierStatic, "hit"))
	rendered := &fakeSource{name: TierRendered}
	resolver := NewResolver(zap.NewNop(),
		StaticSource{Getter: pages.New(nil, 0)},
		rendered,
	)

	got := resolver.Resolve(context.Background(), server.URL)

	assert.Equal(t, Result{Minutes: 45, Source: TierStatic}, got)
	assert.True(t, got.Known())
	assert.Zero(t, rendered.calls)
	assert.Equal(t, hits+1, testutil.ToFloat64(metrics.DurationLookups.WithLabelValues(TierStatic, "hit")))
}

func TestResolveFallsBackToRenderedTier(t *testing.T) {
	cases := map[string]*fakeSource{
		"fetch error":  {name: TierStatic, err: errors.New("connection reset")},
		"pattern miss": {name: TierStatic, html: `<h4>Assessment length</h4><p>loading...</p>`},
		"heading miss": {name: TierStatic, html: `<div id="app"></div>`},
	}

	for name, static := range cases {
		t.Run(name, func(t *testing.T) {
			rendered := &fakeSource{name: TierRendered, html: detailPage}

			got := NewResolver(nil, static, rendered).Resolve(context.Background(), "https://shl.example/a")

			assert.Equal(t, Result{Minutes: 45, Source: TierRendered}, got)
			assert.Equal(t, 1, static.calls)
			assert.Equal(t, 1, rendered.calls)
		})
	}
}

func TestResolveUnknownWhenAllTiersFail(t *testing.T) {
	static := &fakeSource{name: TierStatic, err: errors.New("timeout")}
	rendered := &fakeSource{name: TierRendered, err: errors.New("chrome not found")}

	got := NewResolver(nil, static, rendered).Resolve(context.Background(), "https://shl.example/a")

	assert.Equal(t, Unknown, got)
	assert.False(t, got.Known())
}

func TestResolveStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	static := &fakeSource{name: TierStatic, html: detailPage}

	got := NewResolver(nil, static).Resolve(ctx, "https://shl.example/a")

	assert.Equal(t, Unknown, got)
	assert.Zero(t, static.calls)
}

func TestNewRenderedSourceDefaults(t *testing.T) {
	src := NewRenderedSource(BrowserConfig{Headless: true}, nil)

	require.NotNil(t, src)
	assert.Equal(t, TierRendered, src.Name())
	assert.Equal(t, defaultSettleDelay, src.cfg.SettleDelay)
	assert.Equal(t, defaultRenderTimeout, src.cfg.RenderTimeout)
}
