package surface

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gg"
	"github.com/google/uuid"

	"github.com/example/trackpaddraw/internal/geom"
)

type opKind int

const (
	opMove opKind = iota
	opLine
	opArc
	opRect
)

type pathOp struct {
	kind opKind
	p    geom.Point
	r    float64
	w, h float64
}

// Raster is a Surface backed by a gg software context. Strokes use round
// caps and joins. Subtract mode is composited as destination-out through a
// scratch coverage mask because the context only paints source-over.
type Raster struct {
	mu    sync.Mutex
	size  geom.Size
	ctx   *gg.Context
	mask  *gg.Context
	mode  CompositeMode
	color string
	width float64
	path  []pathOp
	cur   geom.Point
	has   bool
}

var _ Surface = (*Raster)(nil)

// NewRaster allocates a transparent surface of the given backing size.
func NewRaster(size geom.Size) (*Raster, error) {
	if size.Empty() {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrSurfaceUnavailable, size.Width, size.Height)
	}
	ctx := gg.NewContext(size.Width, size.Height)
	if ctx == nil {
		return nil, ErrSurfaceUnavailable
	}
	r := &Raster{
		size:  size,
		ctx:   ctx,
		color: "#000000",
		width: 1,
	}
	r.applyStyle(ctx, r.color)
	return r, nil
}

// Close releases the rendering contexts.
func (r *Raster) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mask != nil {
		_ = r.mask.Close()
		r.mask = nil
	}
	return r.ctx.Close()
}

func (r *Raster) Size() geom.Size { return r.size }

func (r *Raster) BeginPath() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = r.path[:0]
	r.has = false
}

func (r *Raster) MoveTo(p geom.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = append(r.path, pathOp{kind: opMove, p: p})
	r.cur = p
	r.has = true
}

func (r *Raster) LineTo(p geom.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.has {
		r.path = append(r.path, pathOp{kind: opMove, p: p})
	} else {
		r.path = append(r.path, pathOp{kind: opLine, p: p})
	}
	r.cur = p
	r.has = true
}

// Arc adds a full circle around center.
func (r *Raster) Arc(center geom.Point, radius float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = append(r.path, pathOp{kind: opArc, p: center, r: math.Abs(radius)})
	r.cur = geom.Pt(center.X+math.Abs(radius), center.Y)
	r.has = true
}

// Rect adds a closed rectangle. Negative sizes extend up and to the left.
func (r *Raster) Rect(origin geom.Point, w, h float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = append(r.path, pathOp{kind: opRect, p: origin, w: w, h: h})
	r.cur = origin
	r.has = true
}

// Stroke paints the pending path. Only the current point is retained so the
// next LineTo extends the stroke without repainting earlier segments.
func (r *Raster) Stroke() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.path) == 0 {
		return nil
	}
	var err error
	if r.mode == CompositeSubtract {
		err = r.erase()
	} else {
		r.trace(r.ctx)
		err = r.ctx.Stroke()
	}
	r.path = append(r.path[:0], pathOp{kind: opMove, p: r.cur})
	if err != nil {
		return fmt.Errorf("stroke: %w", err)
	}
	return nil
}

func (r *Raster) trace(ctx *gg.Context) {
	for _, op := range r.path {
		switch op.kind {
		case opMove:
			ctx.MoveTo(op.p.X, op.p.Y)
		case opLine:
			ctx.LineTo(op.p.X, op.p.Y)
		case opArc:
			ctx.DrawCircle(op.p.X, op.p.Y, op.r)
		case opRect:
			ctx.DrawRectangle(op.p.X, op.p.Y, op.w, op.h)
		}
	}
}

// erase strokes the path into the mask and scales down the destination by
// the mask coverage, then clears the touched mask area for reuse.
func (r *Raster) erase() error {
	if r.mask == nil {
		r.mask = gg.NewContext(r.size.Width, r.size.Height)
	}
	r.applyStyle(r.mask, "#FFFFFF")
	r.trace(r.mask)
	if err := r.mask.Stroke(); err != nil {
		return err
	}
	bounds := r.pathBounds()
	dst := r.ctx.ResizeTarget().Data()
	cov := r.mask.ResizeTarget().Data()
	stride := r.size.Width * 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := y * stride
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := row + x*4
			a := cov[i+3]
			if a == 0 {
				continue
			}
			keep := 255 - uint32(a)
			dst[i+0] = uint8(uint32(dst[i+0]) * keep / 255)
			dst[i+1] = uint8(uint32(dst[i+1]) * keep / 255)
			dst[i+2] = uint8(uint32(dst[i+2]) * keep / 255)
			dst[i+3] = uint8(uint32(dst[i+3]) * keep / 255)
			cov[i+0], cov[i+1], cov[i+2], cov[i+3] = 0, 0, 0, 0
		}
	}
	return nil
}

// pathBounds returns the pixel area the pending path can touch, clipped to
// the surface.
func (r *Raster) pathBounds() image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(x, y float64) {
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	for _, op := range r.path {
		switch op.kind {
		case opArc:
			grow(op.p.X-op.r, op.p.Y-op.r)
			grow(op.p.X+op.r, op.p.Y+op.r)
		case opRect:
			grow(op.p.X, op.p.Y)
			grow(op.p.X+op.w, op.p.Y+op.h)
		default:
			grow(op.p.X, op.p.Y)
		}
	}
	pad := r.width/2 + 2
	rect := image.Rect(
		int(math.Floor(minX-pad)), int(math.Floor(minY-pad)),
		int(math.Ceil(maxX+pad)), int(math.Ceil(maxY+pad)),
	)
	return rect.Intersect(image.Rect(0, 0, r.size.Width, r.size.Height))
}

// Clear makes every pixel transparent.
func (r *Raster) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx.Clear()
}

func (r *Raster) SetCompositeMode(m CompositeMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = m
}

// CompositeMode reports the active composite mode.
func (r *Raster) CompositeMode() CompositeMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetStrokeStyle sets the stroke colour as #RRGGBB and the line width.
func (r *Raster) SetStrokeStyle(color string, width float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.color = color
	r.width = width
	r.applyStyle(r.ctx, color)
}

func (r *Raster) applyStyle(ctx *gg.Context, color string) {
	ctx.SetHexColor(color)
	ctx.SetLineWidth(r.width)
	ctx.SetLineCap(gg.LineCapRound)
	ctx.SetLineJoin(gg.LineJoinRound)
}

// EncodeSnapshot captures the raster as PNG. The raster's premultiplied
// bytes are stored as-is under an NRGBA header so the round trip is exact.
func (r *Raster) EncodeSnapshot() (Snapshot, error) {
	r.mu.Lock()
	raw := &image.NRGBA{
		Pix:    append([]uint8(nil), r.ctx.ResizeTarget().Data()...),
		Stride: r.size.Width * 4,
		Rect:   image.Rect(0, 0, r.size.Width, r.size.Height),
	}
	r.mu.Unlock()
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, raw); err != nil {
		return Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}
	return Snapshot{ID: uuid.NewString(), Taken: time.Now(), Data: buf.Bytes()}, nil
}

// DecodeAndDraw replaces the raster with the snapshot's pixels.
func (r *Raster) DecodeAndDraw(s Snapshot) error {
	img, err := png.Decode(bytes.NewReader(s.Data))
	if err != nil {
		return fmt.Errorf("decode snapshot %s: %w", s.ID, err)
	}
	// Fully opaque snapshots come back as RGB, where both layouts agree.
	switch src := img.(type) {
	case *image.NRGBA:
		r.Put(&image.RGBA{Pix: src.Pix, Stride: src.Stride, Rect: src.Rect})
	case *image.RGBA:
		r.Put(src)
	default:
		rgba := image.NewRGBA(image.Rect(0, 0, r.size.Width, r.size.Height))
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
		r.Put(rgba)
	}
	return nil
}

func (r *Raster) Backup() *image.RGBA {
	return r.Image()
}

func (r *Raster) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	dst := r.ctx.ResizeTarget().Data()
	if img.Stride == r.size.Width*4 && img.Rect.Min == (image.Point{}) {
		copy(dst, img.Pix)
		return
	}
	stride := r.size.Width * 4
	b := img.Bounds().Intersect(image.Rect(0, 0, r.size.Width, r.size.Height))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		copy(dst[y*stride+b.Min.X*4:], src)
	}
}

// Image returns a copy of the current pixels.
func (r *Raster) Image() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rgba, ok := r.ctx.Image().(*image.RGBA); ok {
		return rgba
	}
	src := r.ctx.Image()
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}
