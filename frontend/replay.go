package frontend

import (
	"context"
	"fmt"

	"github.com/tcassar-diss/vmlisten/listener"
	"github.com/tcassar-diss/vmlisten/vm"
	"go.uber.org/zap"
)

// Report is the outcome of a replay: the registry's counts before and after,
// and their difference.
type Report struct {
	Steps      int            `json:"steps"`
	Before     listener.Stats `json:"before"`
	After      listener.Stats `json:"after"`
	Delta      listener.Stats `json:"delta"`
	Dispatched listener.Stats `json:"dispatched"`
}

// Replay applies script to a freshly booted VM wired to reg. Cancelling ctx
// stops the replay between steps.
func Replay(ctx context.Context, logger *zap.SugaredLogger, reg *listener.Registry, script *Script) (*Report, error) {
	v := vm.New(logger, reg)

	report := &Report{Before: reg.Stats()}

	for i, st := range script.Steps {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w after %d steps: %w", ErrReplayAborted, i, ctx.Err())
		default:
		}

		if err := apply(v, st); err != nil {
			return nil, fmt.Errorf("step %d (%s) failed: %w", i+1, st.Op, err)
		}

		report.Steps++
	}

	report.After = reg.Stats()
	report.Delta = report.After.Delta(report.Before)
	report.Dispatched = reg.Dispatched()

	logger.Infow("replay finished", "steps", report.Steps)

	return report, nil
}

func apply(v *vm.VM, st Step) error {
	switch st.Op {
	case OpDefineClass:
		return v.DefineClass(st.Class, st.Super)
	case OpClassEval:
		return v.ClassEval(st.Class, func(s *vm.Scope) error {
			for _, inner := range st.Steps {
				if err := applyScoped(s, inner); err != nil {
					return err
				}
			}
			return nil
		})
	case OpDef:
		return v.DefineMethod(st.Class, st.Name)
	case OpAlias:
		return v.Alias(st.Class, st.Name, st.Target)
	case OpConst:
		return v.SetConstant(st.Class, st.Name, st.Value)
	case OpExec:
		v.Exec(st.Name)
		return nil
	case OpGeneric:
		v.Debug(st.Name)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, st.Op)
	}
}

func applyScoped(s *vm.Scope, st Step) error {
	switch st.Op {
	case OpDef:
		return s.Def(st.Name)
	case OpAlias:
		return s.AliasMethod(st.Name, st.Target)
	case OpConst:
		return s.Const(st.Name, st.Value)
	default:
		return fmt.Errorf("%w: %s inside class_eval", ErrUnknownOp, st.Op)
	}
}
