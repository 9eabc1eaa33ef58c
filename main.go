package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/thalesraymond/walland/lib/config"
	"github.com/thalesraymond/walland/lib/log"
)

const (
	sourceFlag      = "source"
	backendFlag     = "backend"
	backendArgsFlag = "backend-args"
	saveFlag        = "save"
	debugFlag       = "debug"
	apiKeyFlag      = "api-key"
	tagFlag         = "tag"
	topFlag         = "top"
	configFlag      = "config"
)

var conf *config.Config
var logFile io.Closer

func main() {
	app := newApp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.RunContext(ctx, os.Args)
	stop()
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			os.Exit(exit.ExitCode())
		}
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "walland"
	app.Usage = "Set a daily wallpaper from one of several image-of-the-day sources"
	app.Flags = runFlags()
	app.EnableBashCompletion = true
	app.BashComplete = completeApp
	// Exit from main so the log file is closed first
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Action = func(c *cli.Context) error {
		if err := beforeFunc(c); err != nil {
			return err
		}
		return setAction(c)
	}
	app.Commands = []*cli.Command{
		setCommand(),
		previewCommand(),
		sourcesCommand(),
		monitorsCommand(),
		cleanCommand(),
		interactiveCommand(),
	}
	return app
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  configFlag,
			Usage: "Config file to read instead of walland.toml",
		},
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"D"},
			Usage:   "Enable debug logs",
		},
	}
}

func runFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.StringFlag{
			Name:    sourceFlag,
			Aliases: []string{"s"},
			Usage:   "Source of the image, random when unset",
		},
		&cli.StringFlag{
			Name:    backendFlag,
			Aliases: []string{"b"},
			Usage:   "Wallpaper backend, hyprpaper when unset",
		},
		&cli.StringFlag{
			Name:    backendArgsFlag,
			Aliases: []string{"a"},
			Usage:   "Extra arguments appended to the backend command",
		},
		&cli.BoolFlag{
			Name:    saveFlag,
			Aliases: []string{"S"},
			Usage:   "Save the image in the current directory",
		},
		&cli.StringFlag{
			Name:  apiKeyFlag,
			Usage: "Wallhaven API key, required for wallhaven",
		},
		&cli.StringFlag{
			Name:  tagFlag,
			Usage: "Wallhaven search tag",
		},
		&cli.IntFlag{
			Name:  topFlag,
			Usage: "Number of top Wallhaven results to pick from",
		},
	)
}

// Loads the config and applies flag overrides. Every command that needs the
// config runs this as its Before.
func beforeFunc(c *cli.Context) error {
	log.SetDebug(c.Bool(debugFlag))

	cfg, err := config.Load(c.String(configFlag))
	if err != nil {
		return exitErr(err)
	}

	overrideString(c, sourceFlag, &cfg.Source)
	overrideString(c, backendFlag, &cfg.Backend)
	overrideString(c, backendArgsFlag, &cfg.BackendArgs)
	overrideString(c, apiKeyFlag, &cfg.WallhavenAPIKey)
	overrideString(c, tagFlag, &cfg.WallhavenTag)
	if c.IsSet(topFlag) {
		top := c.Int(topFlag)
		cfg.WallhavenTop = &top
	}

	if cfg.LogFile != "" && logFile == nil {
		logFile = log.SetOutputFile(cfg.LogFile)
	}

	conf = cfg
	return nil
}

func overrideString(c *cli.Context, flag string, dst *string) {
	if c.IsSet(flag) {
		*dst = c.String(flag)
	}
}

// Logs err and turns it into exit status 1.
func exitErr(err error) error {
	if err == nil {
		return nil
	}
	log.Println(err)
	return cli.Exit("", 1)
}
