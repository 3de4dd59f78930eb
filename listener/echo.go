package listener

import (
	"os"

	"go.uber.org/zap"
)

// EchoListener returns a debugging listener that logs each event it sees, but
// only while the environment variable envVar is set.
func EchoListener(logger *zap.SugaredLogger, envVar string) Func {
	return func(e Event, data any) {
		if _, ok := os.LookupEnv(envVar); !ok {
			return
		}

		logger.Infow("listener fired", "event", e, "data", data)
	}
}
