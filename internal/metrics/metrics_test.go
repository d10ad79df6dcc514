package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// go test -v --run TestObserveFetch
func TestObserveFetch(t *testing.T) {
	r := New()

	r.ObserveFetch("quotes", 20*time.Millisecond, nil)
	r.ObserveFetch("quotes", 20*time.Millisecond, errors.New("boom"))
	r.ObserveFetch("quotes", 20*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Fetches.WithLabelValues("quotes", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Fetches.WithLabelValues("quotes", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.FetchDuration))
}
