// Package preview renders a top-down wireframe of a rig and encodes it as
// WebP.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/truck2jbeam/truck2jbeam/internal/config"
	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

// supersample is the factor the wireframe is drawn at before it is scaled
// down to the requested size.
const supersample = 2

var (
	Background = color.RGBA{R: 24, G: 26, B: 30, A: 255}
	BeamColor  = color.RGBA{R: 120, G: 190, B: 255, A: 255}
	NodeColor  = color.RGBA{R: 255, G: 196, B: 64, A: 255}
)

// ErrNoNodes is returned when there is nothing to draw.
var ErrNoNodes = errors.New("rig has no nodes to render")

// DefaultConfig is used for zero-sized configs.
func DefaultConfig() config.PreviewConfig {
	return config.PreviewConfig{Width: 512, Height: 512, Padding: 16}
}

type projection struct {
	minX, minY float64
	scale      float64
	offX, offY float64
	height     float64
}

func newProjection(nodes []*rig.Node, w, h, pad float64) projection {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		minX = math.Min(minX, n.Pos.X())
		minY = math.Min(minY, n.Pos.Y())
		maxX = math.Max(maxX, n.Pos.X())
		maxY = math.Max(maxY, n.Pos.Y())
	}

	spanX, spanY := maxX-minX, maxY-minY
	availW, availH := math.Max(w-2*pad, 1), math.Max(h-2*pad, 1)
	scale := 1.0
	switch {
	case spanX > 0 && spanY > 0:
		scale = math.Min(availW/spanX, availH/spanY)
	case spanX > 0:
		scale = availW / spanX
	case spanY > 0:
		scale = availH / spanY
	}

	return projection{
		minX:   minX,
		minY:   minY,
		scale:  scale,
		offX:   (w - spanX*scale) / 2,
		offY:   (h - spanY*scale) / 2,
		height: h,
	}
}

// point maps a rig position to image space, y pointing down.
func (p projection) point(v mgl64.Vec3) (float32, float32) {
	x := p.offX + (v.X()-p.minX)*p.scale
	y := p.height - (p.offY + (v.Y()-p.minY)*p.scale)
	return float32(x), float32(y)
}

// segment adds a quad of the given width around a->b. All quads share one
// winding so overlaps never cancel.
func segment(z *vector.Rasterizer, ax, ay, bx, by, width float32) {
	dx, dy := bx-ax, by-ay
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	z.MoveTo(ax+nx, ay+ny)
	z.LineTo(bx+nx, by+ny)
	z.LineTo(bx-nx, by-ny)
	z.LineTo(ax-nx, ay-ny)
	z.ClosePath()
}

func square(z *vector.Rasterizer, x, y, size float32) {
	h := size / 2
	z.MoveTo(x-h, y-h)
	z.LineTo(x+h, y-h)
	z.LineTo(x+h, y+h)
	z.LineTo(x-h, y+h)
	z.ClosePath()
}

// Render draws the plan view (X/Y) of r: beams as lines, nodes as dots.
func Render(r *rig.Rig, cfg config.PreviewConfig) (*image.RGBA, error) {
	if len(r.Nodes) == 0 {
		return nil, ErrNoNodes
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		d := DefaultConfig()
		cfg.Width, cfg.Height = d.Width, d.Height
	}
	if cfg.Padding < 0 {
		cfg.Padding = 0
	}

	w, h := cfg.Width*supersample, cfg.Height*supersample
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	proj := newProjection(r.Nodes, float64(w), float64(h), float64(cfg.Padding*supersample))
	idx := r.NodeIndex()

	beams := vector.NewRasterizer(w, h)
	for _, b := range r.Beams {
		i1, ok1 := idx[b.ID1]
		i2, ok2 := idx[b.ID2]
		if !ok1 || !ok2 {
			continue
		}
		ax, ay := proj.point(r.Nodes[i1].Pos)
		bx, by := proj.point(r.Nodes[i2].Pos)
		segment(beams, ax, ay, bx, by, supersample)
	}
	beams.Draw(canvas, canvas.Bounds(), image.NewUniform(BeamColor), image.Point{})

	nodes := vector.NewRasterizer(w, h)
	for _, n := range r.Nodes {
		x, y := proj.point(n.Pos)
		square(nodes, x, y, 3*supersample)
	}
	nodes.Draw(canvas, canvas.Bounds(), image.NewUniform(NodeColor), image.Point{})

	out := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.CatmullRom.Scale(out, out.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)
	return out, nil
}

// Encode renders r and writes it to w as lossless WebP.
func Encode(w io.Writer, r *rig.Rig, cfg config.PreviewConfig) error {
	img, err := Render(r, cfg)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("webp encode: %w", err)
	}
	return nil
}

// WriteFile renders r into path.
func WriteFile(path string, r *rig.Rig, cfg config.PreviewConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview file: %w", err)
	}
	if err := Encode(f, r, cfg); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
