package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/gofetch/pkg/fetch"
	"github.com/jzx17/gofetch/pkg/pool"
	"github.com/jzx17/gofetch/pkg/retry"
)

func TestCollectorPool(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.TaskStarted()
	c.TaskStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(c.TasksInFlight))

	c.TaskFinished(nil)
	c.TaskFinished(errors.New("boom"))

	assert.Equal(t, 0.0, testutil.ToFloat64(c.TasksInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TasksTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TasksTotal.WithLabelValues("error")))
}

func TestCollectorAttempts(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.ObserveAttempt(http.MethodGet, 0, fetch.CodeConnRefused, time.Millisecond)
	c.ObserveAttempt(http.MethodGet, http.StatusOK, "", 2*time.Millisecond)
	c.ObserveRequest(http.MethodGet, nil, 3*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.AttemptsTotal.WithLabelValues(http.MethodGet, "none", fetch.CodeConnRefused)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AttemptsTotal.WithLabelValues(http.MethodGet, "200", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RequestsTotal.WithLabelValues(http.MethodGet, "success")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.AttemptsTotal))
}

func TestCollectorRetryEvents(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	ctx := context.Background()

	c.OnRetryAttempt(ctx, 2, errors.New("e"))
	c.OnRetryAttempt(ctx, 3, errors.New("e"))
	c.OnRetrySuccess(ctx, 3, time.Millisecond)
	c.OnRetryFailure(ctx, 1, errors.New("e"))
	c.OnMaxAttemptsReached(ctx, 6, errors.New("e"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.RetriesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RetryOutcomes.WithLabelValues("recovered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RetryOutcomes.WithLabelValues("terminal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RetryOutcomes.WithLabelValues("exhausted")))
}

func TestCollectorRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	assert.Panics(t, func() { NewCollector(reg) })
}

// A batch of uploads through the pool and client feeds every metric family
func TestCollectorWired(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := NewCollector(prometheus.NewRegistry())
	client := fetch.NewClient(
		fetch.WithProxyResolver(fetch.NoProxyResolver{}),
		fetch.WithRetryConfig(retry.Config{Retries: 2, Interval: time.Millisecond}),
		fetch.WithObserver(c),
		fetch.WithRetryEventHandler(c))

	upload := func(ctx context.Context) (any, error) {
		return client.Put(ctx, server.URL+"/files", "payload")
	}

	results, err := pool.Run(context.Background(), 2,
		pool.FromSlice([]pool.Task[any]{upload, upload, upload}),
		pool.WithObserver(c))

	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, int32(4), calls.Load())

	assert.Equal(t, 0.0, testutil.ToFloat64(c.TasksInFlight))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.TasksTotal.WithLabelValues("success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.RequestsTotal.WithLabelValues(http.MethodPut, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AttemptsTotal.WithLabelValues(http.MethodPut, "503", "")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.AttemptsTotal.WithLabelValues(http.MethodPut, "201", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RetriesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RetryOutcomes.WithLabelValues("recovered")))
}
