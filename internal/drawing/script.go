package drawing

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/example/trackpaddraw/internal/geom"
)

// RunScript drives m from a line based gesture script, one command per line:
//
//	tool circle
//	color #FF3B30
//	width 12
//	start 10 10
//	move 40 40
//	end
//	undo | redo | clear
//	viewport LEFT TOP WIDTH HEIGHT
//
// "leave" is accepted as an alias of end. Blank lines and lines starting
// with # are skipped.
func RunScript(m *Machine, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := runCommand(m, strings.Fields(text)); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := m.GestureEnd(); err != nil {
		return err
	}
	return m.Wait()
}

func runCommand(m *Machine, fields []string) error {
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "tool":
		if len(args) != 1 {
			return fmt.Errorf("tool requires a name")
		}
		t, err := ParseTool(args[0])
		if err != nil {
			return err
		}
		m.SetTool(t)
	case "color", "colour":
		if len(args) != 1 {
			return fmt.Errorf("color requires #RRGGBB")
		}
		hex := args[0]
		if p, ok := LookupPalette(hex); ok {
			hex = p.Hex
		}
		return m.SetColor(hex)
	case "width":
		vals, err := floats(args, 1, cmd)
		if err != nil {
			return err
		}
		w := math.Max(MinStrokeWidth, math.Min(MaxStrokeWidth, vals[0]))
		m.SetStrokeWidth(int(w))
	case "start", "move":
		vals, err := floats(args, 2, cmd)
		if err != nil {
			return err
		}
		ev := At(vals[0], vals[1])
		if cmd == "start" {
			return m.GestureStart(ev)
		}
		return m.GestureMove(ev)
	case "end", "leave":
		return m.GestureEnd()
	case "undo":
		m.Undo()
	case "redo":
		m.Redo()
	case "clear":
		m.Clear()
	case "viewport":
		vals, err := floats(args, 4, cmd)
		if err != nil {
			return err
		}
		m.SetViewport(geom.Rect{Left: vals[0], Top: vals[1], Width: vals[2], Height: vals[3]})
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func floats(args []string, n int, cmd string) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s requires %d numbers", cmd, n)
	}
	vals := make([]float64, n)
	for i, raw := range args {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid number %q", raw)
		}
		vals[i] = v
	}
	return vals, nil
}
