package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/trackpaddraw/internal/theme"
)

// Defaults for the canvas and history.
const (
	DefaultCanvasWidth  = 1200
	DefaultCanvasHeight = 800
	DefaultHistoryLimit = 50
	DefaultServeAddr    = ":8080"
)

// Notify holds notification settings.
type Notify struct {
	Save bool
	Copy bool
}

// Brush holds the starting drawing state.
type Brush struct {
	Tool  string
	Color string
	Size  int
}

// Serve holds settings for the browser front-end.
type Serve struct {
	Addr string
	MDNS bool
}

// Config holds the application configuration.
type Config struct {
	Theme        string
	SaveDir      string
	Format       string
	CanvasWidth  int
	CanvasHeight int
	HistoryLimit int
	Brush        Brush
	Notify       Notify
	Serve        Serve
	Themes       map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme:        "", // Default to empty to allow fallback to Env/Default
		Format:       "png",
		CanvasWidth:  DefaultCanvasWidth,
		CanvasHeight: DefaultCanvasHeight,
		HistoryLimit: DefaultHistoryLimit,
		Brush: Brush{
			Tool:  "brush",
			Color: "#000000",
			Size:  5,
		},
		Serve: Serve{
			Addr: DefaultServeAddr,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	if c.Format != "" {
		fmt.Fprintf(&sb, "format = %s\n", c.Format)
	}
	fmt.Fprintf(&sb, "canvas_width = %d\n", c.CanvasWidth)
	fmt.Fprintf(&sb, "canvas_height = %d\n", c.CanvasHeight)
	fmt.Fprintf(&sb, "history_limit = %d\n", c.HistoryLimit)
	sb.WriteString("\n")

	sb.WriteString("[brush]\n")
	fmt.Fprintf(&sb, "tool = %s\n", c.Brush.Tool)
	fmt.Fprintf(&sb, "color = %s\n", c.Brush.Color)
	fmt.Fprintf(&sb, "size = %d\n", c.Brush.Size)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	sb.WriteString("[serve]\n")
	fmt.Fprintf(&sb, "addr = %s\n", c.Serve.Addr)
	fmt.Fprintf(&sb, "mdns = %v\n", c.Serve.MDNS)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range theme.Fields(t) {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, theme.FormatColor(f.Color))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
