package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/thalesraymond/walland/lib/log"
)

// ParseHyprMonitors returns the monitor names in `hyprctl monitors` output,
// whose blocks start with lines like "Monitor DP-1 (ID 0):".
func ParseHyprMonitors(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		_, rest, found := strings.Cut(line, "Monitor ")
		if !found {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		names = append(names, fields[0])
	}
	return names
}

type swayOutput struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// ParseSwayOutputs returns the active outputs in `swaymsg -t get_outputs`
// JSON.
func ParseSwayOutputs(out []byte) ([]string, error) {
	var outputs []swayOutput
	if err := json.Unmarshal(out, &outputs); err != nil {
		return nil, fmt.Errorf("failed to parse swaymsg outputs: %w", err)
	}

	var names []string
	for _, o := range outputs {
		if o.Active {
			names = append(names, o.Name)
		}
	}
	return names, nil
}

// Monitors lists the outputs the named backend would paint.
func (d *Dispatcher) Monitors(ctx context.Context, backend string) ([]string, error) {
	switch backend {
	case Hyprpaper:
		res, err := d.run(ctx, "hyprctl", "monitors")
		if err != nil {
			return nil, err
		}
		return ParseHyprMonitors(res.String()), nil
	case Swaybg, Swww:
		res, err := d.run(ctx, "swaymsg", "-t", "get_outputs", "--raw")
		if err != nil {
			return nil, err
		}
		return ParseSwayOutputs(res.Output)
	case Feh:
		return d.x11Outputs()
	default:
		return nil, d.unknown(backend)
	}
}

// listX11Outputs asks RandR for every connected output driving a CRTC.
func listX11Outputs() ([]string, error) {
	// Stop polluting stderr
	xgb.Logger.SetOutput(io.Discard)
	xgbutil.Logger.SetOutput(io.Discard)

	X, err := xgbutil.NewConnDisplay("")
	if err != nil {
		return nil, err
	}
	defer X.Conn().Close()

	if wm, err := ewmh.GetEwmhWM(X); err == nil {
		log.Debugf("Window manager: %s", wm)
	}

	conn := X.Conn()
	if err := randr.Init(conn); err != nil {
		return nil, err
	}

	root := xproto.Setup(conn).DefaultScreen(conn).Root
	resources, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return nil, err
	}

	var names []string
	for _, output := range resources.Outputs {
		info, err := randr.GetOutputInfo(conn, output, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, err
		}
		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		names = append(names, string(info.Name))
	}
	return names, nil
}
