package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront_back_end/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChart struct {
	mu        sync.Mutex
	labels    []string
	data      []float64
	updates   int
	destroyed bool
}

func (c *fakeChart) Update(labels []string, data []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels, c.data = labels, data
	c.updates++
}

func (c *fakeChart) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
}

func (c *fakeChart) snapshot() ([]string, []float64, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.labels, c.data, c.updates
}

type fakeBadge struct {
	mu      sync.Mutex
	pending int
	text    string
	style   string
	calls   int
}

func (b *fakeBadge) Update(pending int, text, style string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending, b.text, b.style = pending, text, style
	b.calls++
}

func (b *fakeBadge) get() (string, string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, b.style, b.calls
}

type fakeSelect struct {
	options []Option
	enabled bool
}

func (s *fakeSelect) SetOptions(options []Option, enabled bool) {
	s.options, s.enabled = options, enabled
}

type salesServer struct {
	mu      sync.Mutex
	queries []string
	pending atomic.Int64
	polls   atomic.Int64
	handler func(w http.ResponseWriter, r *http.Request) bool
}

func (s *salesServer) lastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return ""
	}
	return s.queries[len(s.queries)-1]
}

func newSalesServer(t *testing.T) (*salesServer, *httptest.Server) {
	t.Helper()
	state := &salesServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DefaultSalesPath:
			state.mu.Lock()
			state.queries = append(state.queries, r.URL.RawQuery)
			custom := state.handler
			state.mu.Unlock()
			if custom != nil && custom(w, r) {
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"labels": []string{"01.01"},
				"data":   []float64{10},
			})
		case DefaultStatusPath:
			state.polls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]int{"pending": int(state.pending.Load())})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return state, srv
}

func testCatalog() []catalog.FilterCategory {
	return []catalog.FilterCategory{
		{ID: "1", Name: "Boissons", Products: []catalog.FilterProduct{{ID: "10", Name: "Café"}, {ID: "11", Name: "Thé"}}},
		{ID: "2", Name: "Vide", Products: []catalog.FilterProduct{}},
	}
}

func newWidget(t *testing.T, srv *httptest.Server, chart *fakeChart, badge *fakeBadge, products *fakeSelect) *Widget {
	t.Helper()
	cfg := Config{
		BaseURL:      srv.URL,
		Token:        "secret",
		PollInterval: 20 * time.Millisecond,
		RangeButtons: []int{7, 30, 90},
		Catalog:      testCatalog(),
		Chart:        chart,
	}
	if badge != nil {
		cfg.Badge = badge
	}
	if products != nil {
		cfg.Products = products
	}
	w, err := New(cfg)
	require.NoError(t, err)
	return w
}

func TestDefaultRange(t *testing.T) {
	assert.Equal(t, 30, DefaultRange([]int{7, 30, 90}))
	assert.Equal(t, 7, DefaultRange([]int{7, 90}))
	assert.Equal(t, 30, DefaultRange(nil))
}

func TestBadgeText(t *testing.T) {
	text, style := BadgeText(3)
	assert.Equal(t, "3 pending", text)
	assert.Equal(t, BadgeWarning, style)

	text, style = BadgeText(0)
	assert.Equal(t, "All caught up", text)
	assert.Equal(t, BadgeSuccess, style)
}

func TestNewRequiresChart(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestRefreshSendsOnlySelectedFilters(t *testing.T) {
	state, srv := newSalesServer(t)
	chart := &fakeChart{}
	w := newWidget(t, srv, chart, nil, nil)

	require.NoError(t, w.Refresh(context.Background()))
	assert.Equal(t, "range=30", state.lastQuery())

	require.NoError(t, w.SelectCategory(context.Background(), "1"))
	assert.Equal(t, "category=1&range=30", state.lastQuery())

	require.NoError(t, w.SelectProduct(context.Background(), "10"))
	assert.Equal(t, "category=1&product=10&range=30", state.lastQuery())

	require.NoError(t, w.SetRange(context.Background(), 7))
	assert.Equal(t, "category=1&product=10&range=7", state.lastQuery())

	labels, data, _ := chart.snapshot()
	assert.Equal(t, []string{"01.01"}, labels)
	assert.Equal(t, []float64{10}, data)
}

func TestSelectCategoryRepopulatesProducts(t *testing.T) {
	_, srv := newSalesServer(t)
	products := &fakeSelect{}
	w := newWidget(t, srv, &fakeChart{}, nil, products)

	assert.Equal(t, []Option{{Value: AllOption, Label: "Select a category first"}}, products.options)
	assert.False(t, products.enabled)

	require.NoError(t, w.SelectCategory(context.Background(), "1"))
	assert.True(t, products.enabled)
	assert.Equal(t, []Option{
		{Value: AllOption, Label: "All products"},
		{Value: "10", Label: "Café"},
		{Value: "11", Label: "Thé"},
	}, products.options)

	require.NoError(t, w.SelectProduct(context.Background(), "11"))
	require.NoError(t, w.SelectCategory(context.Background(), "all"))

	category, product, _ := w.State()
	assert.Equal(t, AllOption, category)
	assert.Equal(t, AllOption, product)
	assert.False(t, products.enabled)
}

func TestEmptyCategoryDisablesProductSelector(t *testing.T) {
	state, srv := newSalesServer(t)
	products := &fakeSelect{}
	w := newWidget(t, srv, &fakeChart{}, nil, products)

	require.NoError(t, w.SelectCategory(context.Background(), "2"))
	assert.Equal(t, []Option{{Value: AllOption, Label: "All products"}}, products.options)
	assert.False(t, products.enabled)

	err := w.SelectProduct(context.Background(), "10")
	assert.ErrorIs(t, err, ErrControlDisabled)
	assert.Equal(t, "category=2&range=30", state.lastQuery())
}

func TestUnknownRangeRejected(t *testing.T) {
	_, srv := newSalesServer(t)
	w := newWidget(t, srv, &fakeChart{}, nil, nil)

	assert.ErrorIs(t, w.SetRange(context.Background(), 14), ErrUnknownRange)
}

func TestFailureKeepsChart(t *testing.T) {
	state, srv := newSalesServer(t)
	chart := &fakeChart{}
	w := newWidget(t, srv, chart, nil, nil)

	require.NoError(t, w.Refresh(context.Background()))

	state.mu.Lock()
	state.handler = func(rw http.ResponseWriter, r *http.Request) bool {
		http.Error(rw, "boom", http.StatusInternalServerError)
		return true
	}
	state.mu.Unlock()

	err := w.SetRange(context.Background(), 90)
	assert.Error(t, err)

	labels, data, updates := chart.snapshot()
	assert.Equal(t, 1, updates)
	assert.Equal(t, []string{"01.01"}, labels)
	assert.Equal(t, []float64{10}, data)
}

func TestBusyControlAndStaleResponse(t *testing.T) {
	state, srv := newSalesServer(t)
	chart := &fakeChart{}
	w := newWidget(t, srv, chart, nil, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	state.mu.Lock()
	state.handler = func(rw http.ResponseWriter, r *http.Request) bool {
		if r.URL.Query().Get("range") != "7" || r.URL.Query().Get("category") != "" {
			_ = json.NewEncoder(rw).Encode(map[string]interface{}{
				"labels": []string{"fresh"},
				"data":   []float64{2},
			})
			return true
		}
		close(started)
		<-release
		_ = json.NewEncoder(rw).Encode(map[string]interface{}{
			"labels": []string{"stale"},
			"data":   []float64{1},
		})
		return true
	}
	state.mu.Unlock()

	slow := make(chan error, 1)
	go func() { slow <- w.SetRange(context.Background(), 7) }()
	<-started

	assert.ErrorIs(t, w.SetRange(context.Background(), 90), ErrControlDisabled)

	require.NoError(t, w.SelectCategory(context.Background(), "1"))
	close(release)
	require.NoError(t, <-slow)

	labels, data, updates := chart.snapshot()
	assert.Equal(t, 1, updates)
	assert.Equal(t, []string{"fresh"}, labels)
	assert.Equal(t, []float64{2}, data)

	// le contrôle est de nouveau disponible
	state.mu.Lock()
	state.handler = nil
	state.mu.Unlock()
	assert.NoError(t, w.SetRange(context.Background(), 90))
}

func TestPollUpdatesBadge(t *testing.T) {
	state, srv := newSalesServer(t)
	badge := &fakeBadge{}
	w := newWidget(t, srv, &fakeChart{}, badge, nil)
	state.pending.Store(3)

	require.NoError(t, w.Connect(context.Background()))
	defer w.Disconnect()

	require.Eventually(t, func() bool {
		text, style, _ := badge.get()
		return text == "3 pending" && style == BadgeWarning
	}, time.Second, 10*time.Millisecond)

	state.pending.Store(0)
	require.Eventually(t, func() bool {
		text, style, _ := badge.get()
		return text == "All caught up" && style == BadgeSuccess
	}, time.Second, 10*time.Millisecond)
}

func TestDisconnectStopsPollAndDestroysChart(t *testing.T) {
	state, srv := newSalesServer(t)
	chart := &fakeChart{}
	badge := &fakeBadge{}
	w := newWidget(t, srv, chart, badge, nil)

	require.NoError(t, w.Connect(context.Background()))
	require.Eventually(t, func() bool { return state.polls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	w.Disconnect()
	polls := state.polls.Load()
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, polls, state.polls.Load())
	chart.mu.Lock()
	assert.True(t, chart.destroyed)
	chart.mu.Unlock()

	assert.ErrorIs(t, w.SetRange(context.Background(), 7), ErrClosed)
	assert.ErrorIs(t, w.Connect(context.Background()), ErrClosed)
	w.Disconnect()
}

func TestInFlightResponseIgnoredAfterDisconnect(t *testing.T) {
	state, srv := newSalesServer(t)
	chart := &fakeChart{}
	w := newWidget(t, srv, chart, nil, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	state.mu.Lock()
	state.handler = func(rw http.ResponseWriter, r *http.Request) bool {
		close(started)
		<-release
		return false
	}
	state.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- w.Refresh(context.Background()) }()
	<-started

	w.Disconnect()
	close(release)
	require.NoError(t, <-done)

	_, _, updates := chart.snapshot()
	assert.Equal(t, 0, updates)
}

func TestLoadCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DefaultCatalogPath || r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "nope", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"1","name":"Boissons","products":[{"id":"10","name":"Café"}]},{"id":"uncategorized","name":"Uncategorized","products":null}]`))
	}))
	defer srv.Close()

	tree, err := LoadCatalog(context.Background(), srv.Client(), srv.URL, "tok")
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Café", tree[0].Products[0].Name)
	assert.NotNil(t, tree[1].Products)

	_, err = LoadCatalog(context.Background(), srv.Client(), srv.URL, "bad")
	assert.Error(t, err)
}

func TestSelectProductNeverOutlivesCategoryChange(t *testing.T) {
	_, srv := newSalesServer(t)
	w := newWidget(t, srv, &fakeChart{}, nil, nil)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		require.NoError(t, w.SelectCategory(ctx, "1"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.SelectCategory(ctx, "2"))
		}()
		go func() {
			defer wg.Done()
			err := w.SelectProduct(ctx, "10")
			if err != nil {
				assert.ErrorIs(t, err, ErrControlDisabled)
			}
		}()
		wg.Wait()

		category, product, _ := w.State()
		require.Equal(t, "2", category)
		require.Equal(t, AllOption, product, "iteration %d", i)
	}
}
