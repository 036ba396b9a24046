package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/trackpaddraw/internal/web"
)

// serveCmd serves the browser front-end.
type serveCmd struct {
	*root
	fs     *flag.FlagSet
	addr   string
	mdns   bool
	width  int
	height int
}

func (s *serveCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	s := &serveCmd{root: r, fs: fs}
	fs.Usage = usageFunc(s)
	cfg := r.cfg()
	fs.StringVar(&s.addr, "addr", cfg.Serve.Addr, "address to listen on")
	fs.BoolVar(&s.mdns, "mdns", cfg.Serve.MDNS, "advertise the server on the local network")
	fs.IntVar(&s.width, "width", cfg.CanvasWidth, "canvas width in pixels")
	fs.IntVar(&s.height, "height", cfg.CanvasHeight, "canvas height in pixels")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: s}
	}
	if s.width <= 0 || s.height <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %dx%d", s.width, s.height)
	}
	return s, nil
}

func (s *serveCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	if s.mdns {
		port := l.Addr().(*net.TCPAddr).Port
		server, err := web.Advertise(port)
		if err != nil {
			log.Printf("mdns: %v", err)
		} else {
			defer func() {
				if err := server.Shutdown(); err != nil {
					log.Printf("mdns shutdown: %v", err)
				}
			}()
			log.Printf("advertising %s on port %d", web.ServiceType, port)
		}
	}
	srv := web.New(
		web.WithCanvasSize(s.width, s.height),
		web.WithHistoryLimit(s.cfg().HistoryLimit),
		web.WithState(s.brushState()),
	)
	fmt.Fprintf(os.Stderr, "drawing page at http://%s/\n", displayAddr(l.Addr()))
	return srv.Serve(ctx, l)
}

func displayAddr(a net.Addr) string {
	tcp, ok := a.(*net.TCPAddr)
	if !ok {
		return a.String()
	}
	if tcp.IP == nil || tcp.IP.IsUnspecified() {
		return fmt.Sprintf("localhost:%d", tcp.Port)
	}
	return tcp.String()
}

// discoverCmd lists servers advertised over mDNS.
type discoverCmd struct {
	*root
	fs      *flag.FlagSet
	timeout int
}

func (d *discoverCmd) FlagSet() *flag.FlagSet {
	return d.fs
}

func parseDiscoverCmd(args []string, r *root) (*discoverCmd, error) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	d := &discoverCmd{root: r, fs: fs}
	fs.Usage = usageFunc(d)
	fs.IntVar(&d.timeout, "timeout", 2, "seconds to wait for answers")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: d}
	}
	return d, nil
}

func (d *discoverCmd) Run() error {
	found, err := web.Discover(time.Duration(d.timeout) * time.Second)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintln(os.Stdout, "no drawing servers found")
		return nil
	}
	for _, addr := range found {
		fmt.Fprintln(os.Stdout, addr)
	}
	return nil
}
