package listener_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tcassar-diss/vmlisten/listener"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEchoListener(t *testing.T) {
	const envVar = "VMLISTEN_TEST_ECHO"

	core, logs := observer.New(zap.InfoLevel)

	r := listener.NewRegistry(nil, nil)
	require.NoError(t, r.Register(listener.DefineClass, listener.EchoListener(zap.New(core).Sugar(), envVar)))

	r.Notify(listener.DefineClass, listener.ClassDefinitionData{Class: "Quiet"})
	require.Equal(t, 0, logs.Len())

	t.Setenv(envVar, "1")
	r.Notify(listener.DefineClass, listener.ClassDefinitionData{Class: "Loud"})

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "listener fired", entries[0].Message)
	require.Equal(t, listener.ClassDefinitionData{Class: "Loud"}, entries[0].ContextMap()["data"])
}
