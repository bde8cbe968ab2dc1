package toolchain

import (
	"context"
	"sync"
)

// Fake records calls instead of running a build tool.
type Fake struct {
	mu         sync.Mutex
	available  bool
	configErr  error
	compileErr error
	calls      []string
}

// NewFake creates a Fake reporting available.
func NewFake(available bool) *Fake {
	return &Fake{available: available}
}

// FailConfigure makes Configure return err.
func (f *Fake) FailConfigure(err error) *Fake {
	f.configErr = err
	return f
}

// FailCompile makes Compile return err.
func (f *Fake) FailCompile(err error) *Fake {
	f.compileErr = err
	return f
}

func (f *Fake) Available(context.Context) bool {
	return f.available
}

func (f *Fake) Configure(_ context.Context, profile string) error {
	f.record("gen " + profile)
	return f.configErr
}

func (f *Fake) Compile(_ context.Context, profile string) error {
	f.record("build " + profile)
	return f.compileErr
}

// Calls returns the recorded invocations in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

var _ Toolchain = (*Fake)(nil)
var _ Toolchain = (*Fips)(nil)
