package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/colornames"

	"github.com/example/trackpaddraw/internal/clipboard"
	"github.com/example/trackpaddraw/internal/drawing"
	"github.com/example/trackpaddraw/internal/export"
	"github.com/example/trackpaddraw/internal/geom"
)

// drawCmd draws a single gesture without opening a window.
type drawCmd struct {
	*root
	fs          *flag.FlagSet
	file        string
	output      string
	format      string
	colorSpec   string
	color       string
	width       int
	canvasW     int
	canvasH     int
	toClipboard bool
	tool        drawing.Tool
	points      []geom.Point
}

func (d *drawCmd) FlagSet() *flag.FlagSet {
	return d.fs
}

// parseColor accepts a palette name, an X11 colour name or #RRGGBB and
// returns the colour as #RRGGBB.
func parseColor(s string) (string, error) {
	spec := strings.ToLower(strings.TrimSpace(s))
	if spec == "" {
		return "", fmt.Errorf("color cannot be empty")
	}
	if p, ok := drawing.LookupPalette(spec); ok {
		return p.Hex, nil
	}
	if c, ok := colornames.Map[spec]; ok {
		return drawing.FormatColor(c), nil
	}
	if !strings.HasPrefix(spec, "#") {
		spec = "#" + spec
	}
	if drawing.ValidColor(spec) {
		return strings.ToUpper(spec), nil
	}
	return "", fmt.Errorf("invalid color %q", s)
}

func parseDrawCmd(args []string, r *root) (*drawCmd, error) {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	d := &drawCmd{root: r, fs: fs}
	fs.Usage = usageFunc(d)
	cfg := r.cfg()
	st := r.brushState()
	fs.StringVar(&d.file, "file", "", "draw on this PNG or JPEG image instead of a blank canvas")
	fs.StringVar(&d.output, "output", "", "output file path (defaults to drawing_<millis> in the save directory)")
	fs.StringVar(&d.format, "format", "", "output format (png, jpeg, pdf); defaults to the output extension")
	fs.StringVar(&d.colorSpec, "color", st.Color, "stroke color: palette name, color name or #RRGGBB")
	fs.IntVar(&d.width, "width", st.StrokeWidth, "stroke width in pixels (1-50)")
	fs.IntVar(&d.canvasW, "canvas-width", cfg.CanvasWidth, "blank canvas width in pixels")
	fs.IntVar(&d.canvasH, "canvas-height", cfg.CanvasHeight, "blank canvas height in pixels")
	fs.BoolVar(&d.toClipboard, "to-clipboard", false, "copy the result to the clipboard")
	fs.BoolVar(&d.toClipboard, "to-clip", false, "copy the result to the clipboard (alias)")

	flagArgs, positionals, err := splitDrawArgs(args)
	if err != nil {
		return nil, err
	}
	if err := fs.Parse(flagArgs); err != nil {
		return nil, err
	}
	if len(positionals) < 1 {
		return nil, &UsageError{of: d}
	}
	d.tool, err = drawing.ParseTool(positionals[0])
	if err != nil {
		return nil, err
	}
	remaining := positionals[1:]
	switch d.tool {
	case drawing.ToolBrush, drawing.ToolEraser:
		if len(remaining) < 4 || len(remaining)%2 != 0 {
			return nil, fmt.Errorf("%s requires at least two x y points", d.tool)
		}
		vals, err := expectFloats(remaining, len(remaining), d.tool.String())
		if err != nil {
			return nil, err
		}
		for i := 0; i < len(vals); i += 2 {
			d.points = append(d.points, geom.Pt(vals[i], vals[i+1]))
		}
	case drawing.ToolLine, drawing.ToolRectangle:
		vals, err := expectFloats(remaining, 4, d.tool.String())
		if err != nil {
			return nil, err
		}
		d.points = []geom.Point{geom.Pt(vals[0], vals[1]), geom.Pt(vals[2], vals[3])}
	case drawing.ToolCircle:
		vals, err := expectFloats(remaining, 3, d.tool.String())
		if err != nil {
			return nil, err
		}
		if vals[2] < 0 {
			return nil, fmt.Errorf("circle radius cannot be negative")
		}
		d.points = []geom.Point{geom.Pt(vals[0], vals[1]), geom.Pt(vals[0]+vals[2], vals[1])}
	}
	d.color, err = parseColor(d.colorSpec)
	if err != nil {
		return nil, err
	}
	if d.file == "" && (d.canvasW <= 0 || d.canvasH <= 0) {
		return nil, fmt.Errorf("canvas size must be positive, got %dx%d", d.canvasW, d.canvasH)
	}
	if _, err := outputFormat(d.format, d.output, r.format()); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *drawCmd) Run() error {
	base, err := loadImage(d.file)
	if err != nil {
		return err
	}
	m, err := d.newMachine(geom.Size{Width: d.canvasW, Height: d.canvasH}, base)
	if err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}
	defer m.Close()

	m.SetTool(d.tool)
	if err := m.SetColor(d.color); err != nil {
		return err
	}
	m.SetStrokeWidth(d.width)
	if err := m.GestureStart(drawing.PointerEvent{Client: d.points[0]}); err != nil {
		return fmt.Errorf("draw %s: %w", d.tool, err)
	}
	for _, p := range d.points[1:] {
		if err := m.GestureMove(drawing.PointerEvent{Client: p}); err != nil {
			return fmt.Errorf("draw %s: %w", d.tool, err)
		}
	}
	if err := m.GestureEnd(); err != nil {
		return fmt.Errorf("draw %s: %w", d.tool, err)
	}
	return d.root.writeResult(m.Image(), d.output, d.format, d.toClipboard)
}

// outputFormat picks the explicit format, then the output extension, then
// the configured default.
func outputFormat(format, output string, fallback export.Format) (export.Format, error) {
	if format != "" {
		return export.ParseFormat(format)
	}
	if ext := filepath.Ext(output); ext != "" {
		return export.ParseFormat(ext)
	}
	return fallback, nil
}

// writeResult saves img and optionally copies it to the clipboard.
func (r *root) writeResult(img image.Image, output, format string, toClipboard bool) error {
	f, err := outputFormat(format, output, r.format())
	if err != nil {
		return err
	}
	saved := output
	if output == "" {
		saved, err = export.Save(r.saveDir(), img, f, time.Now())
	} else {
		err = export.WriteFile(output, img, f)
	}
	if err != nil {
		return err
	}
	if abs, err := filepath.Abs(saved); err == nil {
		saved = abs
	}
	fmt.Fprintf(os.Stderr, "saved %s\n", saved)
	r.notifySave(saved)
	if toClipboard {
		flat := export.Flatten(img, color.White)
		if err := clipboard.WriteImage(flat); err != nil {
			return fmt.Errorf("copy PNG to clipboard: %w", err)
		}
		detail := filepath.Base(saved)
		fmt.Fprintf(os.Stderr, "copied %s to clipboard\n", detail)
		r.notifyCopy(detail, flat)
	}
	return nil
}

// loadImage decodes a PNG or JPEG file. An empty path returns nil.
func loadImage(path string) (image.Image, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(f)
	if err != nil {
		if cerr := f.Close(); cerr != nil {
			log.Printf("error closing %q: %v", f.Name(), cerr)
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		log.Printf("error closing %q: %v", f.Name(), err)
	}
	return img, nil
}

func expectFloats(args []string, n int, tool string) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s requires %d numeric arguments", tool, n)
	}
	vals := make([]float64, n)
	for i, raw := range args {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", raw)
		}
		vals[i] = v
	}
	return vals, nil
}

var drawFlagNames = map[string]struct{}{
	"file":          {},
	"output":        {},
	"format":        {},
	"color":         {},
	"width":         {},
	"canvas-width":  {},
	"canvas-height": {},
	"to-clipboard":  {},
	"to-clip":       {},
}

var drawBoolFlags = map[string]struct{}{
	"to-clipboard": {},
	"to-clip":      {},
}

// splitDrawArgs separates flags from positionals so flags may follow the
// tool name and negative coordinates are not mistaken for flags.
func splitDrawArgs(args []string) ([]string, []string, error) {
	var flags []string
	var positionals []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positionals = append(positionals, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if name == "" {
			positionals = append(positionals, arg)
			continue
		}
		parts := strings.SplitN(name, "=", 2)
		base := strings.ToLower(parts[0])
		if _, ok := drawFlagNames[base]; !ok {
			positionals = append(positionals, arg)
			continue
		}
		norm := "-" + base
		if len(parts) == 2 {
			flags = append(flags, norm+"="+parts[1])
			continue
		}
		if _, ok := drawBoolFlags[base]; ok {
			flags = append(flags, norm)
			continue
		}
		if i+1 >= len(args) {
			return nil, nil, fmt.Errorf("flag %s requires a value", arg)
		}
		flags = append(flags, norm, args[i+1])
		i++
	}
	return flags, positionals, nil
}
