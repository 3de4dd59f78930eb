package frontend

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tcassar-diss/vmlisten/listener"
	"github.com/tcassar-diss/vmlisten/vm"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestReplay(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	s, err := ParseTOMLScript("testdata/listeners.toml")
	require.NoError(t, err)

	reg := listener.NewRegistry(logger, nil)
	require.NoError(t, reg.Register(listener.BOPRedefinition, func(listener.Event, any) {}))

	report, err := Replay(context.Background(), logger, reg, s)
	require.NoError(t, err)

	require.Equal(t, 6, report.Steps)
	require.Equal(t, listener.Stats{}, report.Before)
	require.Equal(t, report.After, reg.Stats())

	var want listener.Stats
	want[listener.DefineClass] = 3 // define + two class_evals
	want[listener.DefineMethod] = 3
	want[listener.BOPRedefinition] = 1
	want[listener.ConstantRedefinition] = 1
	want[listener.OpCodeExecution] = 1
	require.Equal(t, want, report.Delta)

	require.Equal(t, uint64(1), report.Dispatched.Get(listener.BOPRedefinition))
}

func TestReplay_StepError(t *testing.T) {
	s := &Script{Steps: []Step{
		{Op: OpDefineClass, Class: "A"},
		{Op: OpDef, Class: "Missing", Name: "m"},
	}}

	reg := listener.NewRegistry(nil, nil)

	_, err := Replay(context.Background(), zaptest.NewLogger(t).Sugar(), reg, s)
	require.ErrorIs(t, err, vm.ErrUnknownClass)
	require.ErrorContains(t, err, "step 2")

	// the first step still happened
	require.Equal(t, uint64(1), reg.Stats().Get(listener.DefineClass))
}

func TestReplay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Script{Steps: []Step{{Op: OpExec, Name: "nop"}}}
	reg := listener.NewRegistry(nil, nil)

	_, err := Replay(ctx, zaptest.NewLogger(t).Sugar(), reg, s)
	require.ErrorIs(t, err, ErrReplayAborted)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, listener.Stats{}, reg.Stats())
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.csv")

	cfg := DefaultConfig()
	cfg.Listeners.Trace = tracePath

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), zaptest.NewLogger(t).Sugar(), cfg, "testdata/listeners.toml", &out))

	var report struct {
		Steps int               `json:"steps"`
		Delta map[string]uint64 `json:"delta"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))

	require.Equal(t, 6, report.Steps)
	require.Equal(t, uint64(3), report.Delta["DEFINE_CLASS"])
	require.Equal(t, uint64(1), report.Delta["BOP_REDEFINITION"])
	require.Equal(t, uint64(0), report.Delta["GENERIC"])

	f, err := os.Open(tracePath)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+9) // header + one line per notification
	require.Equal(t, []string{"event", "seq", "detail"}, records[0])
	require.Equal(t, "DEFINE_CLASS", records[1][0])
}

func TestRun_BadScript(t *testing.T) {
	err := Run(context.Background(), zaptest.NewLogger(t).Sugar(), DefaultConfig(), "testdata/bad_op.toml", io.Discard)
	require.ErrorIs(t, err, ErrUnknownOp)
}

func TestMetricsHandler(t *testing.T) {
	reg := listener.NewRegistry(nil, nil)
	reg.Notify(listener.DefineClass, nil)

	handler, err := metricsHandler(reg)
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	lines := strings.Split(string(body), "\n")
	require.Contains(t, lines, `vmlisten_events_total{event="DEFINE_CLASS"} 1`)
	require.Contains(t, lines, `vmlisten_events_total{event="BOP_REDEFINITION"} 0`)
}

type runReport struct {
	Steps int               `json:"steps"`
	Delta map[string]uint64 `json:"delta"`
}

func TestRun_Metrics(t *testing.T) {
	tests := []struct {
		name         string
		linger       time.Duration
		cancelLinger bool
	}{
		{name: "linger expires", linger: 100 * time.Millisecond},
		{name: "cancelled while lingering", linger: time.Minute, cancelLinger: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)

			cfg := DefaultConfig()
			cfg.Metrics = MetricsCfg{Addr: "127.0.0.1:0", Linger: tt.linger}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var out bytes.Buffer
			done := make(chan error, 1)

			go func() {
				done <- Run(ctx, zap.New(core).Sugar(), cfg, "testdata/listeners.toml", &out)
			}()

			if tt.cancelLinger {
				require.Eventually(t, func() bool {
					return logs.FilterMessage("replay done, keeping metrics up").Len() == 1
				}, 5*time.Second, 10*time.Millisecond)

				cancel()
			}

			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("Run did not return after the replay finished")
			}

			require.Equal(t, 1, logs.FilterMessage("serving metrics").Len())

			var report runReport
			require.NoError(t, json.Unmarshal(out.Bytes(), &report))
			require.Equal(t, 6, report.Steps)
			require.Equal(t, uint64(3), report.Delta["DEFINE_CLASS"])
			require.Equal(t, uint64(1), report.Delta["BOP_REDEFINITION"])
		})
	}
}

func TestRun_MetricsListenFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics = MetricsCfg{Addr: "127.0.0.1:-1", Linger: time.Minute}

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), zaptest.NewLogger(t).Sugar(), cfg, "testdata/listeners.toml", io.Discard)
	}()

	select {
	case err := <-done:
		require.ErrorContains(t, err, "metrics server failed")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the metrics server failed")
	}
}
