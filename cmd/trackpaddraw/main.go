package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"os"
	"strings"

	"github.com/example/trackpaddraw/internal/config"
	"github.com/example/trackpaddraw/internal/drawing"
	"github.com/example/trackpaddraw/internal/export"
	"github.com/example/trackpaddraw/internal/geom"
	"github.com/example/trackpaddraw/internal/notify"
	"github.com/example/trackpaddraw/internal/surface"
	"github.com/example/trackpaddraw/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs          *flag.FlagSet
	program     string
	notifier    *notify.Notifier
	config      *config.Config
	saveAlerts  bool
	copyAlerts  bool
	themeName   string
	activeTheme *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) subcommand(name string) *root {
	program := strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &root{
		program:     program,
		notifier:    r.notifier,
		config:      r.config,
		saveAlerts:  r.saveAlerts,
		copyAlerts:  r.copyAlerts,
		themeName:   r.themeName,
		activeTheme: r.activeTheme,
	}
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("trackpaddraw", flag.ExitOnError),
		program:  "trackpaddraw",
		notifier: notify.New(prefs),
		config:   cfg,
	}
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving a drawing")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")

	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "color theme for the drawing window ("+strings.Join(theme.Names(), ", ")+")")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	}
	r.activeTheme = r.loadTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "open":
		cmd, err = parseOpenCmd(subArgs, r.subcommand(cmdName))
	case "serve":
		cmd, err = parseServeCmd(subArgs, r.subcommand(cmdName))
	case "discover":
		cmd, err = parseDiscoverCmd(subArgs, r.subcommand(cmdName))
	case "draw":
		cmd, err = parseDrawCmd(subArgs, r.subcommand(cmdName))
	case "replay":
		cmd, err = parseReplayCmd(subArgs, r.subcommand(cmdName))
	case "colors":
		cmd, err = parseColorsCmd(subArgs, r.subcommand(cmdName))
	case "config":
		cmd, err = parseConfigCmd(subArgs, r.subcommand(cmdName))
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// loadTheme resolves the theme name from the flag, TRACKPADDRAW_THEME and
// the config file, in that order.
func (r *root) loadTheme() *theme.Theme {
	themeName := r.themeName
	if themeName == "" {
		themeName = os.Getenv("TRACKPADDRAW_THEME")
	}
	if themeName == "" && r.config != nil {
		themeName = r.config.Theme
	}
	if r.config != nil {
		if t, ok := r.config.Themes[themeName]; ok {
			return t
		}
	}
	t, err := theme.NewLoader().Load(themeName)
	if err != nil {
		if themeName != "" && themeName != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", themeName, err)
		}
		return theme.Default()
	}
	return t
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func (r *root) cfg() *config.Config {
	if r == nil || r.config == nil {
		return config.New()
	}
	return r.config
}

// brushState is the starting tool, colour and width from the config file.
func (r *root) brushState() drawing.State {
	cfg := r.cfg()
	st := drawing.DefaultState()
	if t, err := drawing.ParseTool(cfg.Brush.Tool); err == nil {
		st.Tool = t
	}
	if drawing.ValidColor(cfg.Brush.Color) {
		st.Color = cfg.Brush.Color
	}
	if cfg.Brush.Size > 0 {
		st.StrokeWidth = drawing.ClampStrokeWidth(cfg.Brush.Size)
	}
	return st
}

func (r *root) format() export.Format {
	f, err := export.ParseFormat(r.cfg().Format)
	if err != nil {
		return export.PNG
	}
	return f
}

func (r *root) saveDir() string {
	if dir := r.cfg().SaveDir; dir != "" {
		return dir
	}
	return "."
}

// newMachine creates a drawing session. The canvas starts with the pixels
// of base when given, otherwise it is blank at the given size.
func (r *root) newMachine(size geom.Size, base image.Image, opts ...drawing.Option) (*drawing.Machine, error) {
	if base != nil {
		b := base.Bounds()
		size = geom.Size{Width: b.Dx(), Height: b.Dy()}
	}
	ras, err := surface.NewRaster(size)
	if err != nil {
		return nil, err
	}
	if base != nil {
		rgba := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
		draw.Draw(rgba, rgba.Bounds(), base, base.Bounds().Min, draw.Src)
		ras.Put(rgba)
	}
	all := append([]drawing.Option{
		drawing.WithHistoryLimit(r.cfg().HistoryLimit),
		drawing.WithState(r.brushState()),
	}, opts...)
	m, err := drawing.New(ras, all...)
	if err != nil {
		ras.Close()
		return nil, err
	}
	return m, nil
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}

func (r *root) notifyCopy(detail string, img image.Image) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(detail, img)
}
