package listener

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// TraceWriter records every event it is registered for to a CSV stream:
//
//	event,seq,detail
//
// seq counts events seen by this writer, starting at 1.
type TraceWriter struct {
	logger *zap.SugaredLogger

	mu         sync.Mutex
	out        *csv.Writer
	seq        uint64
	err        error
	registered bool
}

// NewTraceWriter writes the CSV header to w and returns a writer ready to be
// registered.
func NewTraceWriter(logger *zap.SugaredLogger, w io.Writer) (*TraceWriter, error) {
	out := csv.NewWriter(w)

	if err := out.Write([]string{"event", "seq", "detail"}); err != nil {
		return nil, fmt.Errorf("failed to write trace header: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &TraceWriter{
		logger: logger,
		out:    out,
	}, nil
}

// RegisterTraceListeners registers tw on every event. Should be called only
// once per writer.
func RegisterTraceListeners(r *Registry, tw *TraceWriter) error {
	tw.mu.Lock()
	if tw.registered {
		tw.mu.Unlock()
		return ErrTraceAlreadyRegistered
	}
	tw.registered = true
	tw.mu.Unlock()

	for _, e := range Events() {
		if err := r.Register(e, tw.record); err != nil {
			return fmt.Errorf("failed to register trace listener for %s: %w", e, err)
		}
	}

	return nil
}

func (tw *TraceWriter) record(e Event, data any) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.err != nil {
		return
	}

	tw.seq++

	detail := ""
	if data != nil {
		detail = fmt.Sprintf("%+v", data)
	}

	if err := tw.out.Write([]string{e.String(), strconv.FormatUint(tw.seq, 10), detail}); err != nil {
		tw.err = fmt.Errorf("failed to write trace record: %w", err)
		tw.logger.Warnw("trace writer failed, dropping further events", "err", err)
	}
}

// Close flushes buffered records and returns the first write error, if any.
// Close does not close the underlying writer.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.out.Flush()

	if tw.err != nil {
		return tw.err
	}

	if err := tw.out.Error(); err != nil {
		return fmt.Errorf("failed to flush trace: %w", err)
	}

	return nil
}
