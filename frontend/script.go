package frontend

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Op names one structural mutation in a replay script.
type Op string

const (
	OpDefineClass Op = "define_class" // class, [super]
	OpClassEval   Op = "class_eval"   // class, nested steps
	OpDef         Op = "def"          // class, name
	OpAlias       Op = "alias"        // class, name, target
	OpConst       Op = "const"        // class, name, value
	OpExec        Op = "exec"         // name
	OpGeneric     Op = "generic"      // name
)

// Step is a single script instruction. Steps inside a class_eval body act
// on the evaluated class and must leave Class empty.
type Step struct {
	Op     Op     `toml:"op"`
	Class  string `toml:"class,omitempty"`
	Super  string `toml:"super,omitempty"`
	Name   string `toml:"name,omitempty"`
	Target string `toml:"target,omitempty"`
	Value  any    `toml:"value,omitempty"`
	Steps  []Step `toml:"step,omitempty"`
}

// Script is an ordered list of steps, written in TOML as [[step]] tables:
//
//	[[step]]
//	op = "class_eval"
//	class = "String"
//
//	  [[step.step]]
//	  op = "alias"
//	  name = "old_plus"
//	  target = "+"
type Script struct {
	Steps []Step `toml:"step"`
}

func ParseTOMLScript(filepath string) (*Script, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer file.Close()

	s, err := DecodeScript(file)
	if err != nil {
		return nil, fmt.Errorf("bad script %s: %w", filepath, err)
	}

	return s, nil
}

// DecodeScript reads and validates a TOML script.
func DecodeScript(r io.Reader) (*Script, error) {
	var s Script

	if _, err := toml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode script: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

func MarshalTOMLScript(w io.Writer, s *Script) error {
	if err := toml.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("failed to encode script: %w", err)
	}

	return nil
}

// Validate checks every step has the fields its op needs.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return ErrEmptyScript
	}

	for i, st := range s.Steps {
		if err := st.validate(false); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	return nil
}

func (st *Step) validate(nested bool) error {
	need := func(field, val string) error {
		if val == "" {
			return fmt.Errorf("%w: %s needs %q", ErrMissingField, st.Op, field)
		}
		return nil
	}

	// class is implied inside a class_eval body
	needClass := func() error {
		if nested {
			if st.Class != "" {
				return fmt.Errorf("%w: %s names %s", ErrNestedClass, st.Op, st.Class)
			}
			return nil
		}
		return need("class", st.Class)
	}

	switch st.Op {
	case OpDefineClass:
		if nested {
			return fmt.Errorf("%w: %s inside class_eval", ErrUnknownOp, st.Op)
		}
		return need("class", st.Class)
	case OpClassEval:
		if nested {
			return fmt.Errorf("%w: nested class_eval", ErrUnknownOp)
		}
		if err := need("class", st.Class); err != nil {
			return err
		}
		for i, inner := range st.Steps {
			if err := inner.validate(true); err != nil {
				return fmt.Errorf("class_eval %s step %d: %w", st.Class, i+1, err)
			}
		}
		return nil
	case OpDef:
		if err := needClass(); err != nil {
			return err
		}
		return need("name", st.Name)
	case OpAlias:
		if err := needClass(); err != nil {
			return err
		}
		if err := need("name", st.Name); err != nil {
			return err
		}
		return need("target", st.Target)
	case OpConst:
		if err := needClass(); err != nil {
			return err
		}
		if err := need("name", st.Name); err != nil {
			return err
		}
		if st.Value == nil {
			return fmt.Errorf("%w: %s needs %q", ErrMissingField, st.Op, "value")
		}
		return nil
	case OpExec, OpGeneric:
		if nested {
			return fmt.Errorf("%w: %s inside class_eval", ErrUnknownOp, st.Op)
		}
		return need("name", st.Name)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, st.Op)
	}
}
