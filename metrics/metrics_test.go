package metrics_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.appointy.com/vidgraph/globalid"
	"go.appointy.com/vidgraph/metrics"
	"go.appointy.com/vidgraph/node"
)

func TestOutcome(t *testing.T) {
	require.Equal(t, "ok", metrics.Outcome(nil))
	require.Equal(t, "malformed_id", metrics.Outcome(&node.Error{Err: node.ErrMalformedID}))
	require.Equal(t, "unknown_kind", metrics.Outcome(errors.Wrap(node.ErrUnknownKind, "ghost")))
	require.Equal(t, "not_found", metrics.Outcome(node.ErrNotFound))
	require.Equal(t, "unclassifiable", metrics.Outcome(node.ErrUnclassifiable))
	require.Equal(t, "error", metrics.Outcome(errors.New("boom")))
}

func TestObserve(t *testing.T) {
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveResolve("video", nil, time.Millisecond)
	m.ObserveResolve("video", node.ErrNotFound, time.Millisecond)
	m.ObserveResolve("", node.ErrMalformedID, time.Millisecond)
	m.ObserveRequest("query", false, time.Millisecond)
	m.ObserveRequest("", true, time.Millisecond)

	require.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("video", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("video", "not_found")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("unknown", "malformed_id")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("query", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("unknown", "error")))
}

func TestNewTwiceOnSameRegistryFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg)
	require.NoError(t, err)

	_, err = metrics.New(reg)
	require.Error(t, err)
}

func TestUnknownKindsShareOneSeries(t *testing.T) {
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	b := node.NewBuilder()
	node.Register(b, "video", func(context.Context, string) (*struct{ ID string }, error) { return nil, nil },
		func(v *struct{ ID string }) string { return v.ID })
	r := node.NewResolver(b.MustBuild(), node.WithObserver(m))

	for i := 0; i < 100; i++ {
		_, err := r.ResolveID(context.Background(), globalid.MustEncode(fmt.Sprintf("ghost%d", i), "a"))
		require.True(t, errors.Is(err, node.ErrUnknownKind))
	}

	require.Equal(t, 1, testutil.CollectAndCount(m.Resolutions))
	require.Equal(t, 100.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("unknown", "unknown_kind")))
}
