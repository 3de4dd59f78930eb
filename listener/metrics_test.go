package listener_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/tcassar-diss/vmlisten/listener"
)

func TestCollector(t *testing.T) {
	r := listener.NewRegistry(nil, nil)
	require.NoError(t, r.Register(listener.BOPRedefinition, func(listener.Event, any) {}))
	require.NoError(t, r.Register(listener.BOPRedefinition, func(listener.Event, any) {}))

	r.Notify(listener.DefineClass, nil)
	r.Notify(listener.DefineClass, nil)
	r.Notify(listener.BOPRedefinition, nil)

	c := listener.NewCollector(r)

	require.Equal(t, 2*listener.NumEvents, testutil.CollectAndCount(c))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	families, err := reg.Gather()
	require.NoError(t, err)

	got := make(map[string]map[string]float64)
	for _, f := range families {
		got[f.GetName()] = make(map[string]float64)
		for _, m := range f.GetMetric() {
			require.Len(t, m.GetLabel(), 1)
			got[f.GetName()][m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
		}
	}

	require.Len(t, got["vmlisten_events_total"], listener.NumEvents)
	require.Equal(t, 2.0, got["vmlisten_events_total"]["DEFINE_CLASS"])
	require.Equal(t, 1.0, got["vmlisten_events_total"]["BOP_REDEFINITION"])
	require.Equal(t, 0.0, got["vmlisten_events_total"]["GENERIC"])

	require.Equal(t, 2.0, got["vmlisten_listener_dispatch_total"]["BOP_REDEFINITION"])
	require.Equal(t, 0.0, got["vmlisten_listener_dispatch_total"]["DEFINE_CLASS"])
}
