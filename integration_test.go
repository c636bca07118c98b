package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"sjsage522/profitsniper/helpers"
	"sjsage522/profitsniper/internal"
	"sjsage522/profitsniper/internal/classifier"
	"sjsage522/profitsniper/internal/crawler"
	"sjsage522/profitsniper/internal/currency"
	"sjsage522/profitsniper/internal/dedup"
	"sjsage522/profitsniper/internal/models"
	"sjsage522/profitsniper/internal/profile"
	"sjsage522/profitsniper/internal/profit"
	"sjsage522/profitsniper/internal/seen"
	"sjsage522/profitsniper/services/cache"
	"sjsage522/profitsniper/services/publisher"
	"sjsage522/profitsniper/services/queue"
	"sjsage522/profitsniper/services/store"
	"sjsage522/profitsniper/services/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// searchHTML mimics an auction search result page
const searchHTML = `
<!DOCTYPE html>
<html>
<body>
<ul>
<li class="Product">
  <img src="//auctions.c.yimg.jp/images/x1000001.jpg">
  <h3 class="Product__title"><a href="/jp/auction/x1000001">Rick Owens DRKSHDW Tee Archive FW18</a></h3>
  <span class="Product__priceValue">2,500円</span>
</li>
<li class="Product">
  <h3 class="Product__title"><a href="/jp/auction/x1000002">Supreme x CDG Tee</a></h3>
  <span class="Product__priceValue">2,500円</span>
</li>
</ul>
</body>
</html>
`

const detailHTML = `<html><body><p>Buy it now price: 2,500 yen</p></body></html>`

// marketplace serves search pages and detail pages
func marketplace(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch {
		case r.URL.Path == "/search":
			w.Write([]byte(searchHTML))
		case strings.HasPrefix(r.URL.Path, "/detail/"):
			w.Write([]byte(detailHTML))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// notifier records webhook payloads and answers with a message id
type notifier struct {
	mu       sync.Mutex
	payloads []map[string]interface{}
}

func (n *notifier) server(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != publisher.WebhookPath {
			http.NotFound(w, r)
			return
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		n.mu.Lock()
		n.payloads = append(n.payloads, body)
		n.mu.Unlock()
		w.Write([]byte(`{"status":"ok","message_id":1234567890123456789}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func (n *notifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.payloads)
}

func newPipeline(t *testing.T, site *httptest.Server, st store.Store, q *queue.Queue) *worker.Worker {
	t.Helper()
	prof, err := profile.Get("luxury")
	require.NoError(t, err)

	dir := t.TempDir()
	fetcher := helpers.NewFetcher(5*time.Second, nil)
	pages := crawler.NewCachedFetcher(fetcher, cache.NewMemoryCache(), time.Minute)

	deps := internal.Dependencies{
		Profile:    prof,
		Source:     crawler.NewYahooSearch(pages, site.URL+"/search", site.URL),
		Normalizer: currency.NewNormalizer(currency.Options{DefaultRate: 150}),
		Classifier: prof.Classifier(),
		Mechanism:  classifier.NewMechanismResolver(pages, site.URL+"/detail/%s", ""),
		Estimator:  profit.NewEstimator(prof.Pricing, 200),
		Detector:   dedup.NewDetector(st),
		Seen:       seen.NewSet(filepath.Join(dir, "seen.json"), 100),
		Finds:      seen.NewFindLog(filepath.Join(dir, "finds.json"), 10),
		Store:      st,
		Queue:      q,
		Events:     helpers.NewEventLog(filepath.Join(dir, "events.json"), 100, 10),
	}
	return worker.NewWorker(deps, worker.Options{
		KeywordsPerCycle: 1,
		MaxPages:         2,
		Filters:          []crawler.Filter{crawler.FilterFixedPrice, crawler.FilterBid},
		ErrorDelay:       time.Millisecond,
	})
}

func TestIntegrationDiscoveryToNotification(t *testing.T) {
	ctx := context.Background()
	site := marketplace(t)
	hook := &notifier{}
	hookServer := hook.server(t)

	st := store.NewMemoryStore()
	q := queue.New(queue.NewFileBackend(filepath.Join(t.TempDir(), "queue.json")), 100)
	dispatcher := worker.NewDispatcher(q, publisher.NewHTTPPublisher(hookServer.URL, nil), st, nil, time.Second, 3)
	w := newPipeline(t, site, st, q).WithDispatcher(dispatcher)

	stats := w.RunCycle(ctx)
	assert.Equal(t, 1, stats.Queued)
	assert.Equal(t, 1, stats.ProfitableFound)
	assert.Zero(t, stats.Errors)

	assert.Equal(t, 1, dispatcher.Drain(ctx))
	require.Equal(t, 1, hook.count())

	payload := hook.payloads[0]
	assert.Equal(t, "x1000001", payload["auction_id"])
	assert.Equal(t, "Rick Owens", payload["brand"])
	assert.Equal(t, "buy_it_now", payload["listing_type"])
	assert.Equal(t, "https://auctions.c.yimg.jp/images/x1000001.jpg", payload["image_url"])
	assert.InDelta(t, 16.67, payload["price_usd"], 0.001)

	stored, err := st.GetListing(ctx, "x1000001")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "1234567890123456789", stored.MessageRef)
	assert.Equal(t, models.MechanismFixedPrice, stored.Mechanism)

	size, err := q.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestIntegrationWorkersSharingStoreDeliverOnce(t *testing.T) {
	ctx := context.Background()
	site := marketplace(t)
	hook := &notifier{}
	hookServer := hook.server(t)

	st := store.NewMemoryStore()
	q := queue.New(queue.NewFileBackend(""), 100)
	dispatcher := worker.NewDispatcher(q, publisher.NewHTTPPublisher(hookServer.URL, nil), st, nil, time.Second, 3)

	first := newPipeline(t, site, st, q)
	second := newPipeline(t, site, st, q)

	a := first.RunCycle(ctx)
	b := second.RunCycle(ctx)
	assert.Equal(t, 1, a.Queued)
	assert.Zero(t, b.Queued)
	// exact id match on the first filter pass, then the seen set on the second
	assert.Equal(t, 2, b.Duplicates)

	dispatcher.Drain(ctx)
	assert.Equal(t, 1, hook.count())
	assert.Equal(t, 1, st.Len())
}

func TestWaitForWorker(t *testing.T) {
	done := make(chan error, 1)
	assert.False(t, waitForWorker(done, 10*time.Millisecond))

	done <- context.Canceled
	assert.True(t, waitForWorker(done, time.Second))
}
