package main

import (
	"flag"
	"fmt"

	"github.com/example/trackpaddraw/internal/drawing"
	"github.com/example/trackpaddraw/internal/export"
	"github.com/example/trackpaddraw/internal/geom"
	"github.com/example/trackpaddraw/internal/shell"
)

// openCmd opens the desktop drawing window.
type openCmd struct {
	*root
	fs      *flag.FlagSet
	width   int
	height  int
	saveDir string
	format  string
	file    string
}

func (o *openCmd) FlagSet() *flag.FlagSet {
	return o.fs
}

func parseOpenCmd(args []string, r *root) (*openCmd, error) {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	o := &openCmd{root: r, fs: fs}
	fs.Usage = usageFunc(o)
	cfg := r.cfg()
	fs.IntVar(&o.width, "width", cfg.CanvasWidth, "canvas width in pixels")
	fs.IntVar(&o.height, "height", cfg.CanvasHeight, "canvas height in pixels")
	fs.StringVar(&o.saveDir, "save-dir", r.saveDir(), "directory drawings are saved to")
	fs.StringVar(&o.format, "format", string(r.format()), "save format (png, jpeg, pdf)")
	fs.StringVar(&o.file, "file", "", "start from an existing PNG or JPEG image")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: o}
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %dx%d", o.width, o.height)
	}
	return o, nil
}

func (o *openCmd) Run() error {
	f, err := export.ParseFormat(o.format)
	if err != nil {
		return err
	}
	base, err := loadImage(o.file)
	if err != nil {
		return err
	}
	var sh *shell.Shell
	m, err := o.newMachine(geom.Size{Width: o.width, Height: o.height}, base,
		drawing.WithChangeListener(func() { sh.NotifyChanged() }))
	if err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}
	defer m.Close()
	sh = shell.New(m,
		shell.WithTheme(o.activeTheme),
		shell.WithNotifier(o.notifier),
		shell.WithSaveDir(o.saveDir),
		shell.WithFormat(f),
	)
	sh.Run()
	return nil
}
