package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/trackpaddraw/internal/drawing"
)

type colorsCmd struct {
	*root
	fs  *flag.FlagSet
	out io.Writer
}

func parseColorsCmd(args []string, r *root) (*colorsCmd, error) {
	fs := flag.NewFlagSet("colors", flag.ExitOnError)
	cmd := &colorsCmd{root: r, fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *colorsCmd) Run() error {
	current := c.brushState().Color
	fmt.Fprintln(c.out, "available palette colors (* marks the configured brush color):")
	for idx, entry := range drawing.PaletteColors() {
		marker := " "
		if strings.EqualFold(entry.Hex, current) {
			marker = "*"
		}
		col, err := drawing.ParseColor(entry.Hex)
		if err != nil {
			return err
		}
		block := fmt.Sprintf("\x1b[48;2;%d;%d;%dm  \x1b[0m", col.R, col.G, col.B)
		fmt.Fprintf(c.out, "%s %2d: %-12s %s %s\n", marker, idx+1, entry.Name, entry.Hex, block)
	}
	return nil
}

func (c *colorsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}
