// Package vm is a minimal host runtime: a class table that can be extended at
// runtime. Every structural mutation it performs is reported to a Notifier,
// which is how the listener package gets to count them.
package vm

import (
	"fmt"
	"sync"

	"github.com/tcassar-diss/vmlisten/listener"
	"go.uber.org/zap"
)

// Notifier receives structural events. *listener.Registry satisfies it.
type Notifier interface {
	Notify(e listener.Event, data any)
}

// Class is a named, reopenable set of methods and constants.
type Class struct {
	name    string
	super   *Class
	flag    int // basic operator redefinition flag, 0 for non-builtins
	methods map[string]string
	consts  map[string]any
}

func newClass(name string, super *Class, flag int) *Class {
	return &Class{
		name:    name,
		super:   super,
		flag:    flag,
		methods: make(map[string]string),
		consts:  make(map[string]any),
	}
}

func (c *Class) superName() string {
	if c.super == nil {
		return ""
	}

	return c.super.name
}

// VM owns the class table. It is safe for concurrent use; listeners are
// notified after the table lock is released, so they may call back into the
// VM.
type VM struct {
	logger *zap.SugaredLogger
	n      Notifier

	mu        sync.Mutex
	classes   map[string]*Class
	redefined [bopEnd]int
}

type notification struct {
	event listener.Event
	data  any
}

// New boots a VM with the builtin classes and their basic operators. Booting
// does not notify n.
func New(logger *zap.SugaredLogger, n Notifier) *VM {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	v := &VM{
		logger:  logger,
		n:       n,
		classes: make(map[string]*Class, len(builtins)),
	}

	for _, b := range builtins {
		v.classes[b.name] = newClass(b.name, v.classes[b.super], b.flag)
	}

	for name, info := range basicOps {
		for _, c := range v.classes {
			if c.flag&info.flags != 0 {
				c.methods[name] = name
			}
		}
	}

	return v
}

func (v *VM) emit(ns ...notification) {
	for _, n := range ns {
		v.n.Notify(n.event, n.data)
	}
}

// DefineClass defines class name, or reopens it if it already exists. An
// empty super means Object for new classes and "whatever it already is" for
// existing ones.
func (v *VM) DefineClass(name, super string) error {
	if name == "" {
		return fmt.Errorf("%w: empty class name", ErrInvalidName)
	}

	v.mu.Lock()

	c, err := v.defineClass(name, super)
	if err != nil {
		v.mu.Unlock()
		return err
	}

	data := listener.ClassDefinitionData{Class: c.name, Super: c.superName()}
	v.mu.Unlock()

	v.emit(notification{listener.DefineClass, data})

	return nil
}

func (v *VM) defineClass(name, super string) (*Class, error) {
	if c, ok := v.classes[name]; ok {
		if super != "" && super != c.superName() {
			return nil, fmt.Errorf("%w for %s: %s != %s", ErrSuperclassMismatch, name, super, c.superName())
		}

		return c, nil
	}

	if super == "" {
		super = "Object"
	}

	sc, ok := v.classes[super]
	if !ok {
		return nil, fmt.Errorf("%w: superclass %s of %s", ErrUnknownClass, super, name)
	}

	c := newClass(name, sc, 0)
	v.classes[name] = c

	v.logger.Debugw("defined class", "class", name, "super", super)

	return c, nil
}

// ClassEval reopens an existing class and runs fn with a Scope bound to it.
// Reopening counts as one class definition.
func (v *VM) ClassEval(name string, fn func(*Scope) error) error {
	v.mu.Lock()
	c, ok := v.classes[name]
	v.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClass, name)
	}

	v.emit(notification{listener.DefineClass, listener.ClassDefinitionData{Class: c.name, Super: c.superName()}})

	if err := fn(&Scope{vm: v, class: name}); err != nil {
		return fmt.Errorf("class_eval on %s failed: %w", name, err)
	}

	return nil
}

// DefineMethod adds (or replaces) method on class. Redefining a basic
// operator of a builtin class is additionally reported as a BOP
// redefinition.
func (v *VM) DefineMethod(class, method string) error {
	return v.installMethod(class, method, method)
}

// Alias copies the method oldName of class to newName.
func (v *VM) Alias(class, newName, oldName string) error {
	v.mu.Lock()
	c, ok := v.classes[class]
	if !ok {
		v.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}

	body, ok := v.findMethod(c, oldName)
	v.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s#%s", ErrUndefinedMethod, class, oldName)
	}

	return v.installMethod(class, newName, body)
}

func (v *VM) installMethod(class, method, body string) error {
	if method == "" {
		return fmt.Errorf("%w: empty method name", ErrInvalidName)
	}

	v.mu.Lock()

	c, ok := v.classes[class]
	if !ok {
		v.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}

	c.methods[method] = body

	ns := []notification{{listener.DefineMethod, listener.MethodDefinitionData{Class: class, Method: method}}}

	if bop, ok := lookupBOP(method, c.flag); ok {
		v.redefined[bop] |= c.flag
		ns = append(ns, notification{listener.BOPRedefinition, listener.BOPRedefinitionData{BOP: int(bop), Flag: c.flag}})

		v.logger.Infow("basic operator redefined", "class", class, "method", method, "bop", int(bop))
	}

	v.mu.Unlock()

	v.emit(ns...)

	return nil
}

func (v *VM) findMethod(c *Class, name string) (string, bool) {
	for ; c != nil; c = c.super {
		if body, ok := c.methods[name]; ok {
			return body, true
		}
	}

	return "", false
}

// RespondTo reports whether instances of class have method, directly or
// through a superclass.
func (v *VM) RespondTo(class, method string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	c, ok := v.classes[class]
	if !ok {
		return false
	}

	_, ok = v.findMethod(c, method)

	return ok
}

// Redefined reports the classes (as a mask of redefinition flags) on which
// bop has been redefined.
func (v *VM) Redefined(bop BOP) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.redefined[bop]
}

// SetConstant assigns a constant under class. The first assignment is
// silent; reassignments are reported.
func (v *VM) SetConstant(class, name string, value any) error {
	if name == "" {
		return fmt.Errorf("%w: empty constant name", ErrInvalidName)
	}

	v.mu.Lock()

	c, ok := v.classes[class]
	if !ok {
		v.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}

	old, existed := c.consts[name]
	c.consts[name] = value
	v.mu.Unlock()

	if existed {
		v.logger.Warnw("already initialized constant", "class", class, "constant", name)

		v.emit(notification{listener.ConstantRedefinition, listener.ConstantRedefinitionData{
			Class:    class,
			Name:     name,
			OldValue: old,
			NewValue: value,
		}})
	}

	return nil
}

// Constant returns the value of a constant of class.
func (v *VM) Constant(class, name string) (any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	c, ok := v.classes[class]
	if !ok {
		return nil, false
	}

	val, ok := c.consts[name]

	return val, ok
}

// Exec reports the execution of one instruction.
func (v *VM) Exec(op string) {
	v.emit(notification{listener.OpCodeExecution, listener.OpCodeExecutionData{Op: op}})
}

// Debug reports a free-form generic event.
func (v *VM) Debug(msg string) {
	v.emit(notification{listener.Generic, msg})
}

// Scope is the receiver of a ClassEval block.
type Scope struct {
	vm    *VM
	class string
}

// Def defines a method on the scope's class.
func (s *Scope) Def(method string) error {
	return s.vm.DefineMethod(s.class, method)
}

// AliasMethod copies oldName to newName on the scope's class.
func (s *Scope) AliasMethod(newName, oldName string) error {
	return s.vm.Alias(s.class, newName, oldName)
}

// Const assigns a constant on the scope's class.
func (s *Scope) Const(name string, value any) error {
	return s.vm.SetConstant(s.class, name, value)
}
