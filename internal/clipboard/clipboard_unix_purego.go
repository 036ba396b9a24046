//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// readTimeout bounds how long a paste waits for the selection owner.
const readTimeout = 2 * time.Second

var atomNames = [...]string{
	"CLIPBOARD",
	"TARGETS",
	"UTF8_STRING",
	"text/plain;charset=utf-8",
	"image/png",
	"TRACKPADDRAW_SELECTION",
}

type x11Atoms struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
	incoming  xproto.Atom
}

// x11 owns the CLIPBOARD selection through a hidden window and answers
// conversion requests from the current Offer. One connection serves both
// directions: the event loop hands SelectionNotify replies to readers.
type x11 struct {
	conn  *xgb.Conn
	win   xproto.Window
	atoms x11Atoms

	mu    sync.RWMutex
	offer Offer
	owned bool

	readMu sync.Mutex
	notify chan xproto.SelectionNotifyEvent
}

func newBackend() (backend, error) {
	if !haveDisplay() {
		return nil, errNoDisplay
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	win, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = xproto.CreateWindowChecked(conn, 0, win, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create selection window: %w", err)
	}
	atoms, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, win)
		conn.Close()
		return nil, err
	}
	c := &x11{
		conn:   conn,
		win:    win,
		atoms:  atoms,
		notify: make(chan xproto.SelectionNotifyEvent, 1),
	}
	go c.events()
	return c, nil
}

func internAtoms(conn *xgb.Conn) (x11Atoms, error) {
	var ids [len(atomNames)]xproto.Atom
	for i, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return x11Atoms{}, fmt.Errorf("intern atom %s: %w", name, err)
		}
		ids[i] = reply.Atom
	}
	return x11Atoms{
		clipboard: ids[0],
		targets:   ids[1],
		utf8:      ids[2],
		textPlain: ids[3],
		png:       ids[4],
		incoming:  ids[5],
	}, nil
}

func (c *x11) publish(o Offer) error {
	c.mu.Lock()
	c.offer = o
	c.owned = true
	c.mu.Unlock()
	err := xproto.SetSelectionOwnerChecked(c.conn, c.win, c.atoms.clipboard, xproto.TimeCurrentTime).Check()
	if err != nil {
		return fmt.Errorf("take clipboard: %w", err)
	}
	reply, err := xproto.GetSelectionOwner(c.conn, c.atoms.clipboard).Reply()
	if err != nil {
		return fmt.Errorf("take clipboard: %w", err)
	}
	if reply.Owner != c.win {
		c.release()
		return errors.New("take clipboard: another client kept the selection")
	}
	return nil
}

func (c *x11) release() {
	c.mu.Lock()
	c.offer = Offer{}
	c.owned = false
	c.mu.Unlock()
}

// readText answers from the current offer while this process owns the
// selection and asks the owner otherwise, preferring UTF-8 targets.
func (c *x11) readText() (string, error) {
	c.mu.RLock()
	if c.owned && c.offer.Text != "" {
		text := c.offer.Text
		c.mu.RUnlock()
		return text, nil
	}
	c.mu.RUnlock()

	err := errNoText
	for _, target := range []xproto.Atom{c.atoms.utf8, c.atoms.textPlain, xproto.AtomString} {
		data, cerr := c.convert(target)
		if cerr == nil && len(data) > 0 {
			return string(data), nil
		}
		if cerr != nil {
			err = cerr
		}
	}
	return "", err
}

func (c *x11) convert(target xproto.Atom) ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()
	select {
	case <-c.notify:
	default:
	}
	err := xproto.ConvertSelectionChecked(c.conn, c.win, c.atoms.clipboard, target,
		c.atoms.incoming, xproto.TimeCurrentTime).Check()
	if err != nil {
		return nil, fmt.Errorf("request clipboard: %w", err)
	}
	select {
	case e := <-c.notify:
		if e.Property == xproto.AtomNone {
			return nil, errNoText
		}
		reply, err := xproto.GetProperty(c.conn, true, c.win, c.atoms.incoming,
			xproto.GetPropertyTypeAny, 0, 1<<24).Reply()
		if err != nil {
			return nil, fmt.Errorf("read clipboard: %w", err)
		}
		return bytes.Clone(reply.Value), nil
	case <-time.After(readTimeout):
		return nil, errors.New("read clipboard: owner did not answer")
	}
}

func (c *x11) events() {
	for {
		ev, err := c.conn.WaitForEvent()
		if ev == nil && err == nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			c.answer(e)
		case xproto.SelectionClearEvent:
			c.release()
		case xproto.SelectionNotifyEvent:
			select {
			case c.notify <- e:
			default:
			}
		}
	}
}

// payload returns the property type, format and bytes served for target.
func (c *x11) payload(target xproto.Atom) (xproto.Atom, byte, []byte, bool) {
	c.mu.RLock()
	o := c.offer
	c.mu.RUnlock()
	switch target {
	case c.atoms.targets:
		list := []xproto.Atom{c.atoms.targets}
		if len(o.PNG) > 0 {
			list = append(list, c.atoms.png)
		}
		if o.Text != "" {
			list = append(list, c.atoms.utf8, c.atoms.textPlain, xproto.AtomString)
		}
		buf := make([]byte, 4*len(list))
		for i, a := range list {
			xgb.Put32(buf[4*i:], uint32(a))
		}
		return xproto.AtomAtom, 32, buf, true
	case c.atoms.png:
		return c.atoms.png, 8, o.PNG, len(o.PNG) > 0
	case c.atoms.utf8, c.atoms.textPlain, xproto.AtomString:
		return target, 8, []byte(o.Text), o.Text != ""
	}
	return xproto.AtomNone, 0, nil, false
}

func (c *x11) answer(e xproto.SelectionRequestEvent) {
	prop := e.Property
	if prop == xproto.AtomNone {
		prop = e.Target
	}
	typ, format, data, ok := c.payload(e.Target)
	if ok {
		n := uint32(len(data))
		if format == 32 {
			n /= 4
		}
		xproto.ChangeProperty(c.conn, xproto.PropModeReplace, e.Requestor, prop, typ, format, n, data)
	} else {
		prop = xproto.AtomNone
	}
	reply := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  prop,
	}
	xproto.SendEvent(c.conn, false, e.Requestor, xproto.EventMaskNoEvent, string(reply.Bytes()))
}
