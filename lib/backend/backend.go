// Package backend applies an image as the desktop background by driving one of
// the supported wallpaper programs.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/thalesraymond/walland/lib/log"
	"github.com/thalesraymond/walland/lib/proc"
)

// Backend identifiers
const (
	Hyprpaper = "hyprpaper"
	Swaybg    = "swaybg"
	Swww      = "swww"
	Feh       = "feh"
)

const (
	swwwDaemon = "swww-daemon"

	// DefaultReadyTimeout bounds the wait for a freshly spawned daemon.
	DefaultReadyTimeout = time.Second
	pollInterval        = 100 * time.Millisecond
)

var (
	// ErrUnknownBackend is returned for identifiers outside the supported set.
	ErrUnknownBackend = errors.New("unknown backend")
	// ErrNotInstalled is returned when the backend executable is not on $PATH.
	ErrNotInstalled = errors.New("backend not installed")
	// ErrStartupTimeout is returned when a spawned daemon never shows up.
	ErrStartupTimeout = errors.New("backend startup timeout")
	// ErrCommandFailed is returned when a backend command exits non-zero.
	ErrCommandFailed = errors.New("backend command failed")
)

// Spec selects a backend. Args is split with shell quoting rules and appended
// to the final apply command without validation.
type Spec struct {
	Name string
	Args string
}

type applier func(ctx context.Context, image string, extra []string) error

// Dispatcher applies wallpapers through a proc.Runner.
type Dispatcher struct {
	runner       proc.Runner
	readyTimeout time.Duration
	pollInterval time.Duration

	names    []string
	appliers map[string]applier

	x11Outputs func() ([]string, error)
}

// NewDispatcher returns a Dispatcher that waits up to readyTimeout for spawned
// daemons. A zero timeout uses DefaultReadyTimeout.
func NewDispatcher(runner proc.Runner, readyTimeout time.Duration) *Dispatcher {
	if readyTimeout <= 0 {
		readyTimeout = DefaultReadyTimeout
	}
	d := &Dispatcher{
		runner:       runner,
		readyTimeout: readyTimeout,
		pollInterval: pollInterval,
		names:        []string{Hyprpaper, Swaybg, Swww, Feh},
		x11Outputs:   listX11Outputs,
	}
	d.appliers = map[string]applier{
		Hyprpaper: d.hyprpaper,
		Swaybg:    d.swaybg,
		Swww:      d.swww,
		Feh:       d.feh,
	}
	return d
}

// Names lists the supported backends.
func (d *Dispatcher) Names() []string {
	return append([]string(nil), d.names...)
}

// Check fails with ErrUnknownBackend unless name is supported.
func (d *Dispatcher) Check(name string) error {
	if _, ok := d.appliers[name]; !ok {
		return d.unknown(name)
	}
	return nil
}

func (d *Dispatcher) unknown(name string) error {
	return fmt.Errorf("%w: %q (available: %s)", ErrUnknownBackend, name, strings.Join(d.names, ", "))
}

// Apply sets image as the wallpaper with the backend named by spec.
func (d *Dispatcher) Apply(ctx context.Context, spec Spec, image string) error {
	apply, ok := d.appliers[spec.Name]
	if !ok {
		return d.unknown(spec.Name)
	}

	extra, err := shlex.Split(spec.Args)
	if err != nil {
		return fmt.Errorf("invalid backend arguments %q: %w", spec.Args, err)
	}

	if _, err := d.runner.LookPath(spec.Name); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotInstalled, spec.Name, err)
	}

	log.Debugf("Applying [%s] with %s %v", image, spec.Name, extra)
	return apply(ctx, image, extra)
}

func (d *Dispatcher) hyprpaper(ctx context.Context, image string, extra []string) error {
	if err := d.ensureDaemon(ctx, Hyprpaper); err != nil {
		return err
	}

	if _, err := d.run(ctx, "hyprctl", "hyprpaper", "preload", image); err != nil {
		return err
	}

	out, err := d.run(ctx, "hyprctl", "monitors")
	if err != nil {
		return err
	}
	monitors := ParseHyprMonitors(out.String())
	if len(monitors) == 0 {
		log.Println("hyprctl reported no monitors, wallpaper only preloaded")
		return nil
	}

	for _, m := range monitors {
		args := append([]string{"hyprpaper", "wallpaper", m + "," + image}, extra...)
		if _, err := d.run(ctx, "hyprctl", args...); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) swaybg(ctx context.Context, image string, extra []string) error {
	// Exits non-zero when no swaybg is running, which is fine
	res, err := d.runner.Run(ctx, "killall", Swaybg)
	if err != nil {
		log.Debugf("killall %s: %v", Swaybg, err)
	} else if !res.Success() {
		log.Debugf("killall %s exited with status %d", Swaybg, res.ExitCode)
	}

	args := append([]string{"--mode", "fill", "-i", image}, extra...)
	if err := d.runner.Start(Swaybg, args...); err != nil {
		return fmt.Errorf("%w: starting %s: %v", ErrCommandFailed, Swaybg, err)
	}
	return nil
}

func (d *Dispatcher) swww(ctx context.Context, image string, extra []string) error {
	if err := d.ensureDaemon(ctx, swwwDaemon); err != nil {
		return err
	}
	_, err := d.run(ctx, Swww, append([]string{"img", image}, extra...)...)
	return err
}

func (d *Dispatcher) feh(ctx context.Context, image string, extra []string) error {
	_, err := d.run(ctx, Feh, append([]string{"--bg-fill", image}, extra...)...)
	return err
}

// run executes a command that must succeed.
func (d *Dispatcher) run(ctx context.Context, name string, args ...string) (proc.Result, error) {
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))
	log.Debugf("Running %s", cmdline)

	res, err := d.runner.Run(ctx, name, args...)
	if err != nil {
		return res, fmt.Errorf("%w: %s: %v", ErrCommandFailed, cmdline, err)
	}
	if !res.Success() {
		return res, fmt.Errorf("%w: %s exited with status %d: %s", ErrCommandFailed, cmdline, res.ExitCode, res)
	}
	return res, nil
}

// running probes for a process named exactly daemon.
func (d *Dispatcher) running(ctx context.Context, daemon string) (bool, error) {
	res, err := d.runner.Run(ctx, "pgrep", "-x", daemon)
	if err != nil {
		return false, fmt.Errorf("probing for %s: %w", daemon, err)
	}
	return res.Success(), nil
}

// ensureDaemon spawns daemon unless it is already running and waits for it to
// appear.
func (d *Dispatcher) ensureDaemon(ctx context.Context, daemon string) error {
	up, err := d.running(ctx, daemon)
	if err != nil {
		return err
	}
	if up {
		log.Debugf("%s is already running", daemon)
		return nil
	}

	log.Debugf("Starting %s", daemon)
	if err := d.runner.Start(daemon); err != nil {
		return fmt.Errorf("%w: starting %s: %v", ErrCommandFailed, daemon, err)
	}
	return d.waitReady(ctx, daemon)
}

func (d *Dispatcher) waitReady(ctx context.Context, daemon string) error {
	ctx, cancel := context.WithTimeout(ctx, d.readyTimeout)
	defer cancel()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s not running after %s", ErrStartupTimeout, daemon, d.readyTimeout)
			}
			return ctx.Err()
		case <-ticker.C:
			up, err := d.running(ctx, daemon)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				return err
			}
			if up {
				return nil
			}
		}
	}
}
