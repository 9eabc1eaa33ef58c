package backend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thalesraymond/walland/lib/proc"
	"github.com/thalesraymond/walland/lib/proc/proctest"
)

const img = "/tmp/walland/bing_2024-03-09.jpg"

const hyprMonitors = `Monitor DP-1 (ID 0):
	2560x1440@143.91200 at 0x0
	description: Dell Inc. DELL S2721DGF
	focused: yes

Monitor HDMI-A-1 (ID 1):
	1920x1080@60.00000 at 2560x0
	focused: no
`

func newTestDispatcher(r proc.Runner) *Dispatcher {
	d := NewDispatcher(r, 50*time.Millisecond)
	d.pollInterval = 5 * time.Millisecond
	return d
}

// respond routes fake results by command line. Unlisted commands succeed
// with no output.
func respond(results map[string]proc.Result) func(proctest.Call) proc.Result {
	return func(c proctest.Call) proc.Result {
		return results[c.String()]
	}
}

func TestApply_Feh(t *testing.T) {
	fake := proctest.NewFake()
	d := newTestDispatcher(fake)

	err := d.Apply(context.Background(), Spec{Name: Feh}, img)
	require.NoError(t, err)
	assert.Equal(t, []string{"feh --bg-fill " + img}, fake.Commands())
	assert.Equal(t, []string{"feh"}, fake.Lookups)
}

func TestApply_FehExtraArgs(t *testing.T) {
	fake := proctest.NewFake()
	d := newTestDispatcher(fake)

	err := d.Apply(context.Background(), Spec{Name: Feh, Args: `--no-xinerama --image-bg "dark gray"`}, img)
	require.NoError(t, err)
	require.Len(t, fake.Calls, 1)
	assert.Equal(t, []string{"--bg-fill", img, "--no-xinerama", "--image-bg", "dark gray"}, fake.Calls[0].Args)
}

func TestApply_UnknownBackend(t *testing.T) {
	fake := proctest.NewFake()
	d := newTestDispatcher(fake)

	err := d.Apply(context.Background(), Spec{Name: "nitrogen"}, img)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownBackend))
	assert.Contains(t, err.Error(), "hyprpaper, swaybg, swww, feh")
	assert.Empty(t, fake.Calls)
	assert.Empty(t, fake.Lookups)
}

func TestApply_NotInstalled(t *testing.T) {
	for _, name := range []string{Hyprpaper, Swaybg, Swww, Feh} {
		t.Run(name, func(t *testing.T) {
			fake := proctest.NewFake(name)
			d := newTestDispatcher(fake)

			err := d.Apply(context.Background(), Spec{Name: name}, img)
			assert.True(t, errors.Is(err, ErrNotInstalled))
			assert.Empty(t, fake.Calls)
		})
	}
}

func TestApply_BadArgs(t *testing.T) {
	fake := proctest.NewFake()
	d := newTestDispatcher(fake)

	err := d.Apply(context.Background(), Spec{Name: Feh, Args: `--image-bg "unterminated`}, img)
	assert.Error(t, err)
	assert.Empty(t, fake.Calls)
}

func TestApply_HyprpaperRunning(t *testing.T) {
	fake := proctest.NewFake()
	fake.Respond = respond(map[string]proc.Result{
		"hyprctl monitors": {Output: []byte(hyprMonitors)},
	})
	d := newTestDispatcher(fake)

	err := d.Apply(context.Background(), Spec{Name: Hyprpaper, Args: "extra"}, img)
	require.NoError(t, err)
	assert.Empty(t, fake.Started())
	assert.Equal(t, []string{
		"pgrep -x hyprpaper",
		"hyprctl hyprpaper preload " + img,
		"hyprctl monitors",
		"hyprctl hyprpaper wallpaper DP-1," + img + " extra",
		"hyprctl hyprpaper wallpaper HDMI-A-1," + img + " extra",
	}, fake.Commands())
}

func TestApply_HyprpaperSpawnsDaemon(t *testing.T) {
	var started atomic.Bool
	fake := proctest.NewFake()
	fake.OnStart = func(c proctest.Call) { started.Store(true) }
	fake.Respond = func(c proctest.Call) proc.Result {
		switch c.String() {
		case "pgrep -x hyprpaper":
			if started.Load() {
				return proc.Result{Output: []byte("4242\n")}
			}
			return proc.Result{ExitCode: 1}
		case "hyprctl monitors":
			return proc.Result{Output: []byte(hyprMonitors)}
		}
		return proc.Result{}
	}
	d := newTestDispatcher(fake)

	err := d.Apply(context.Background(), Spec{Name: Hyprpaper}, img)
	require.NoError(t, err)
	assert.Equal(t, []string{Hyprpaper}, fake.Started())

	cmds := fake.Commands()
	assert.Equal(t, "pgrep -x hyprpaper", cmds[0])
	assert.Equal(t, "hyprpaper", cmds[1])
	assert.Contains(t, cmds, "hyprctl hyprpaper preload "+img)
	assert.Equal(t, "hyprctl hyprpaper wallpaper HDMI-A-1,"+img, cmds[len(cmds)-1])
}

func TestApply_HyprpaperStartupTimeout(t *testing.T) {
	fake := proctest.NewFake()
	fake.Respond = respond(map[string]proc.Result{
		"pgrep -x hyprpaper": {ExitCode: 1},
	})
	d := newTestDispatcher(fake)

	start := time.Now()
	err := d.Apply(context.Background(), Spec{Name: Hyprpaper}, img)
	assert.True(t, errors.Is(err, ErrStartupTimeout))
	assert.Less(t, time.Since(start), time.Second)

	assert.Equal(t, []string{Hyprpaper}, fake.Started())
	assert.NotContains(t, fake.Commands(), "hyprctl hyprpaper preload "+img)
}

func TestApply_HyprpaperNoMonitors(t *testing.T) {
	fake := proctest.NewFake()
	d := newTestDispatcher(fake)

	err := d.Apply(context.Background(), Spec{Name: Hyprpaper}, img)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"pgrep -x hyprpaper",
		"hyprctl hyprpaper preload " + img,
		"hyprctl monitors",
	}, fake.Commands())
}

func TestApply_HyprctlFailure(t *testing.T) {
	fake := proctest.NewFake()
	fake.Respond = respond(map[string]proc.Result{
		"hyprctl hyprpaper preload " + img: {Output: []byte("couldn't connect to hyprpaper socket"), ExitCode: 1},
	})
	d := newTestDispatcher(fake)

	err := d.Apply(context.Background(), Spec{Name: Hyprpaper}, img)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandFailed))
	assert.Contains(t, err.Error(), "couldn't connect")
}

func TestApply_Swaybg(t *testing.T) {
	fake := proctest.NewFake()
	// No swaybg running
	fake.Respond = respond(map[string]proc.Result{
		"killall swaybg": {Output: []byte("swaybg: no process found"), ExitCode: 1},
	})
	d := newTestDispatcher(fake)

	err := d.Apply(context.Background(), Spec{Name: Swaybg, Args: "-o DP-1"}, img)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"killall swaybg",
		"swaybg --mode fill -i " + img + " -o DP-1",
	}, fake.Commands())
	assert.Equal(t, []string{Swaybg}, fake.Started())
}

func TestApply_SwwwRunning(t *testing.T) {
	fake := proctest.NewFake()
	d := newTestDispatcher(fake)

	err := d.Apply(context.Background(), Spec{Name: Swww, Args: "--transition-type grow"}, img)
	require.NoError(t, err)
	assert.Empty(t, fake.Started())
	assert.Equal(t, []string{
		"pgrep -x swww-daemon",
		"swww img " + img + " --transition-type grow",
	}, fake.Commands())
	assert.Equal(t, []string{"swww"}, fake.Lookups)
}

func TestApply_SwwwSpawnsDaemon(t *testing.T) {
	var probes atomic.Int32
	fake := proctest.NewFake()
	fake.Respond = func(c proctest.Call) proc.Result {
		if c.String() == "pgrep -x swww-daemon" && probes.Add(1) < 3 {
			return proc.Result{ExitCode: 1}
		}
		return proc.Result{}
	}
	d := newTestDispatcher(fake)

	err := d.Apply(context.Background(), Spec{Name: Swww}, img)
	require.NoError(t, err)
	assert.Equal(t, []string{"swww-daemon"}, fake.Started())
	assert.Equal(t, int32(3), probes.Load())
	assert.Equal(t, "swww img "+img, fake.Commands()[len(fake.Commands())-1])
}

func TestApply_CanceledContext(t *testing.T) {
	fake := proctest.NewFake()
	d := newTestDispatcher(fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Apply(ctx, Spec{Name: Feh}, img)
	assert.True(t, errors.Is(err, ErrCommandFailed))
}

func TestNames(t *testing.T) {
	d := NewDispatcher(proctest.NewFake(), 0)
	assert.Equal(t, []string{Hyprpaper, Swaybg, Swww, Feh}, d.Names())
	assert.Equal(t, DefaultReadyTimeout, d.readyTimeout)
}
