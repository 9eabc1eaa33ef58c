// Package proctest provides a recording proc.Runner for tests.
package proctest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/thalesraymond/walland/lib/proc"
)

// Call is one Run or Start seen by a Fake.
type Call struct {
	Name     string
	Args     []string
	Detached bool
}

// String renders the call as a command line.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Fake records every invocation instead of spawning processes.
type Fake struct {
	mu sync.Mutex

	// Missing lists executables LookPath reports as not installed.
	Missing map[string]bool
	// Respond decides the result of a Run. Nil means every Run succeeds with
	// empty output.
	Respond func(c Call) proc.Result
	// OnStart is called for every Start after it is recorded.
	OnStart func(c Call)

	Calls   []Call
	Lookups []string
}

// NewFake returns a Fake that reports names as not installed.
func NewFake(missing ...string) *Fake {
	f := &Fake{Missing: map[string]bool{}}
	for _, m := range missing {
		f.Missing[m] = true
	}
	return f
}

func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Lookups = append(f.Lookups, name)
	if f.Missing[name] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}

func (f *Fake) Run(ctx context.Context, name string, args ...string) (proc.Result, error) {
	c := Call{Name: name, Args: args}
	f.mu.Lock()
	f.Calls = append(f.Calls, c)
	respond := f.Respond
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return proc.Result{}, err
	}
	if respond == nil {
		return proc.Result{}, nil
	}
	return respond(c), nil
}

func (f *Fake) Start(name string, args ...string) error {
	c := Call{Name: name, Args: args, Detached: true}
	f.mu.Lock()
	f.Calls = append(f.Calls, c)
	onStart := f.OnStart
	f.mu.Unlock()

	if onStart != nil {
		onStart(c)
	}
	return nil
}

// Commands returns the recorded calls as command lines.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		out = append(out, c.String())
	}
	return out
}

// Started returns the names spawned with Start.
func (f *Fake) Started() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Calls {
		if c.Detached {
			out = append(out, c.Name)
		}
	}
	return out
}

var _ proc.Runner = (*Fake)(nil)
