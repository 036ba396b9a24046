package notify

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/trackpaddraw/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
}

func recorder(n *Notifier) *[]sent {
	var got []sent
	n.SetSender(func(title, body string, opts platform.Options) error {
		if opts.IconPath != "" {
			if _, err := os.Stat(opts.IconPath); err != nil {
				opts.IconPath = "missing:" + opts.IconPath
			}
		}
		got = append(got, sent{title, body, opts})
		return nil
	})
	return &got
}

func TestDisabledEventsAreSilent(t *testing.T) {
	n := New(DefaultPreferences())
	got := recorder(n)
	n.Save("drawing.png")
	n.Copy("", nil)
	if len(*got) != 0 {
		t.Fatalf("expected no notifications, got %+v", *got)
	}
}

func TestSaveNotification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drawing_1.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	n := New(DefaultPreferences())
	n.Enable(EventSave, true)
	got := recorder(n)
	n.Save(path)
	if len(*got) != 1 {
		t.Fatalf("expected one notification, got %d", len(*got))
	}
	msg := (*got)[0]
	if msg.title != platform.AppName {
		t.Errorf("title = %q", msg.title)
	}
	if !strings.HasPrefix(msg.body, "Saved ") || !strings.HasSuffix(msg.body, "drawing_1.png") {
		t.Errorf("body = %q", msg.body)
	}
	if msg.opts.IconPath != path {
		t.Errorf("icon = %q, want %q", msg.opts.IconPath, path)
	}
}

func TestCopyNotificationUsesPreview(t *testing.T) {
	n := New(Preferences{Title: "T", Events: map[Event]EventPreference{EventCopy: {Template: "copied %s"}}})
	n.Enable(EventCopy, true)
	got := recorder(n)
	n.Copy("", image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if len(*got) != 1 {
		t.Fatalf("expected one notification, got %d", len(*got))
	}
	msg := (*got)[0]
	if msg.body != "copied drawing" {
		t.Errorf("body = %q", msg.body)
	}
	if msg.opts.IconPath == "" || strings.HasPrefix(msg.opts.IconPath, "missing:") {
		t.Errorf("preview not available during send: %q", msg.opts.IconPath)
	}
}

func TestLoadPreferencesFromEnv(t *testing.T) {
	t.Setenv("TRACKPADDRAW_NOTIFY_TITLE", "Sketch")
	t.Setenv("TRACKPADDRAW_NOTIFY_SAVE_TEXT", "Wrote %s")
	prefs := LoadPreferences()
	if prefs.Title != "Sketch" {
		t.Errorf("title = %q", prefs.Title)
	}
	if prefs.Events[EventSave].Template != "Wrote %s" {
		t.Errorf("save template = %q", prefs.Events[EventSave].Template)
	}
	if prefs.Events[EventCopy].Template != DefaultPreferences().Events[EventCopy].Template {
		t.Errorf("copy template changed: %q", prefs.Events[EventCopy].Template)
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier
	n.Enable(EventSave, true)
	n.Save("x")
	n.Copy("x", nil)
}
