package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseOverridesDefaults(t *testing.T) {
	input := `
# comment
Name: Custom
Background: #112233
canvasshadow: #00000080
Unknown: #FFFFFF
`
	th, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if th.Name != "Custom" {
		t.Errorf("Name = %q", th.Name)
	}
	if th.Background != (color.RGBA{0x11, 0x22, 0x33, 0xFF}) {
		t.Errorf("Background = %+v", th.Background)
	}
	if th.CanvasShadow != (color.RGBA{0, 0, 0, 0x80}) {
		t.Errorf("CanvasShadow = %+v", th.CanvasShadow)
	}
	if th.Paper != Default().Paper {
		t.Errorf("Paper should keep its default, got %+v", th.Paper)
	}
}

func TestParseRejectsBadColor(t *testing.T) {
	if _, err := Parse(strings.NewReader("Background: red")); err == nil {
		t.Fatal("expected error for invalid color")
	}
	if _, err := Parse(strings.NewReader("Background: #12345")); err == nil {
		t.Fatal("expected error for invalid hex length")
	}
}

func TestFormatColorRoundTrip(t *testing.T) {
	for _, s := range []string{"#A1B2C3", "#A1B2C380"} {
		c, err := ParseColor(s)
		if err != nil {
			t.Fatalf("ParseColor(%s): %v", s, err)
		}
		if got := FormatColor(c); got != s {
			t.Errorf("FormatColor = %s, want %s", got, s)
		}
	}
}

func TestEmbeddedThemesLoad(t *testing.T) {
	names := Names()
	if len(names) < 3 {
		t.Fatalf("expected embedded themes, got %v", names)
	}
	l := &Loader{ConfigDir: t.TempDir(), SystemDir: t.TempDir()}
	for _, name := range names {
		if _, err := l.Load(name); err != nil {
			t.Errorf("Load(%s): %v", name, err)
		}
	}
	dark, err := l.Load("dark")
	if err != nil {
		t.Fatalf("Load(dark): %v", err)
	}
	if dark.Name != "Dark" {
		t.Errorf("dark theme name = %q", dark.Name)
	}
}

func TestLoaderSearchOrder(t *testing.T) {
	cfgDir := t.TempDir()
	l := &Loader{ConfigDir: cfgDir, SystemDir: t.TempDir()}
	if err := os.WriteFile(filepath.Join(cfgDir, "mine.theme"), []byte("Name: Mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	th, err := l.Load("mine")
	if err != nil {
		t.Fatalf("Load(mine): %v", err)
	}
	if th.Name != "Mine" {
		t.Errorf("Name = %q", th.Name)
	}
	if _, err := l.Load("missing"); err == nil {
		t.Error("expected error for missing theme")
	}
	if th, err := l.Load(""); err != nil || th.Name != "Default" {
		t.Errorf("Load(\"\") = %v, %v", th, err)
	}
}

func TestFieldsListsColors(t *testing.T) {
	fields := Fields(Default())
	if len(fields) == 0 || fields[0].Name != "Background" {
		t.Fatalf("unexpected fields %+v", fields)
	}
	for _, f := range fields {
		if f.Name == "Name" {
			t.Fatal("Name is not a color field")
		}
	}
}
