package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/trackpaddraw/internal/drawing"
	"github.com/example/trackpaddraw/internal/geom"
)

// replayCmd runs a gesture script against a headless canvas.
type replayCmd struct {
	*root
	fs          *flag.FlagSet
	script      string
	file        string
	output      string
	format      string
	canvasW     int
	canvasH     int
	toClipboard bool
	stdin       io.Reader
}

func (p *replayCmd) FlagSet() *flag.FlagSet {
	return p.fs
}

func parseReplayCmd(args []string, r *root) (*replayCmd, error) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	p := &replayCmd{root: r, fs: fs, stdin: os.Stdin}
	fs.Usage = usageFunc(p)
	cfg := r.cfg()
	fs.StringVar(&p.script, "script", "", "gesture script to run, or - for standard input")
	fs.StringVar(&p.file, "file", "", "start from this PNG or JPEG image instead of a blank canvas")
	fs.StringVar(&p.output, "output", "", "output file path (defaults to drawing_<millis> in the save directory)")
	fs.StringVar(&p.format, "format", "", "output format (png, jpeg, pdf); defaults to the output extension")
	fs.IntVar(&p.canvasW, "canvas-width", cfg.CanvasWidth, "blank canvas width in pixels")
	fs.IntVar(&p.canvasH, "canvas-height", cfg.CanvasHeight, "blank canvas height in pixels")
	fs.BoolVar(&p.toClipboard, "to-clipboard", false, "copy the result to the clipboard")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if p.script == "" || fs.NArg() != 0 {
		return nil, &UsageError{of: p}
	}
	if _, err := outputFormat(p.format, p.output, r.format()); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *replayCmd) Run() error {
	var src io.Reader = p.stdin
	if p.script != "-" {
		f, err := os.Open(p.script)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		src = f
	}
	base, err := loadImage(p.file)
	if err != nil {
		return err
	}
	m, err := p.newMachine(geom.Size{Width: p.canvasW, Height: p.canvasH}, base)
	if err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}
	defer m.Close()
	if err := drawing.RunScript(m, src); err != nil {
		return fmt.Errorf("replay %s: %w", p.script, err)
	}
	return p.writeResult(m.Image(), p.output, p.format, p.toClipboard)
}
