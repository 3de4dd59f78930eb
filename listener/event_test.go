package listener_test

import (
	"encoding/json"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"
	"github.com/tcassar-diss/vmlisten/listener"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name     string
		expected listener.Event
		err      error
	}{
		{name: "DEFINE_CLASS", expected: listener.DefineClass},
		{name: "BOP_REDEFINITION", expected: listener.BOPRedefinition},
		{name: "GENERIC", expected: listener.Generic},
		{name: "define_class", err: listener.ErrUnknownEvent},
		{name: "", err: listener.ErrUnknownEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := listener.ParseEvent(tt.name)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
			require.Equal(t, tt.name, got.String())
		})
	}
}

func TestEvents_ClosedSet(t *testing.T) {
	evs := listener.Events()

	require.Len(t, evs, listener.NumEvents)
	require.Contains(t, evs, listener.DefineClass)
	require.Contains(t, evs, listener.BOPRedefinition)
	require.False(t, listener.Event(listener.NumEvents).Valid())
	require.Equal(t, "Event(42)", listener.Event(42).String())
}

func TestEvent_TOMLKey(t *testing.T) {
	var doc struct {
		Watch []listener.Event `toml:"watch"`
	}

	_, err := toml.Decode(`watch = ["DEFINE_CLASS", "DEFINE_METHOD"]`, &doc)
	require.NoError(t, err)
	require.Equal(t, []listener.Event{listener.DefineClass, listener.DefineMethod}, doc.Watch)

	_, err = toml.Decode(`watch = ["NOPE"]`, &doc)
	require.Error(t, err)
}

func TestStats_JSON(t *testing.T) {
	var s listener.Stats
	s[listener.DefineClass] = 3
	s[listener.BOPRedefinition] = 1

	bts, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]uint64
	require.NoError(t, json.Unmarshal(bts, &m))
	require.Len(t, m, listener.NumEvents)
	require.Equal(t, uint64(3), m["DEFINE_CLASS"])
	require.Equal(t, uint64(1), m["BOP_REDEFINITION"])
	require.Equal(t, uint64(0), m["GENERIC"])

	var back listener.Stats
	require.NoError(t, json.Unmarshal(bts, &back))
	require.Equal(t, s, back)

	require.ErrorIs(t, json.Unmarshal([]byte(`{"NOPE": 1}`), &back), listener.ErrUnknownEvent)
}

func TestStats_Delta(t *testing.T) {
	var before, after listener.Stats
	before[listener.DefineMethod] = 2
	after[listener.DefineMethod] = 5
	after[listener.Generic] = 1

	d := after.Delta(before)

	require.Equal(t, uint64(3), d.Get(listener.DefineMethod))
	require.Equal(t, uint64(1), d.Get(listener.Generic))
	require.Equal(t, uint64(0), d.Get(listener.DefineClass))
}
