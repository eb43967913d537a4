package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/hailam/attackboard/internal/board"
)

var (
	fontsOnce sync.Once
	fontsErr  error
	regular   *opentype.Font
	bold      *opentype.Font
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regular, fontsErr = opentype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		bold, fontsErr = opentype.Parse(gobold.TTF)
	})
	return fontsErr
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Image rasterizes the attack map drawn by SVG.
func Image(pos *board.Position, opts Options) (*image.RGBA, error) {
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}

	var buf bytes.Buffer
	drawSVG(&buf, pos, opts, false)

	icon, err := oksvg.ReadIconStream(&buf)
	if err != nil {
		return nil, fmt.Errorf("parse board svg: %w", err)
	}

	l := newLayout(opts)
	w, h := l.width(), l.height()
	icon.SetTarget(0, 0, float64(w), float64(h))

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	if err := drawText(rgba, pos, l); err != nil {
		return nil, err
	}
	return rgba, nil
}

// PNG writes the attack map as a PNG image.
func PNG(w io.Writer, pos *board.Position, opts Options) error {
	img, err := Image(pos, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// drawText puts piece letters and file/rank labels on a rasterized board.
func drawText(dst *image.RGBA, pos *board.Position, l layout) error {
	pieceFace, err := newFace(bold, float64(l.square)/2)
	if err != nil {
		return err
	}
	defer pieceFace.Close()

	labelFace, err := newFace(regular, float64(l.margin)*2/3)
	if err != nil {
		return err
	}
	defer labelFace.Close()

	for sq := board.A1; sq <= board.H8; sq++ {
		piece := pos.PieceAt(sq)
		if piece == board.NoPiece {
			continue
		}
		ink := color.Black
		if piece.Color() == board.Black {
			ink = color.White
		}
		x, y := l.origin(sq)
		drawCentered(dst, pieceFace, ink, piece.String(), x+l.square/2, y+l.square/2)
	}

	for i := 0; i < 8; i++ {
		file := string(rune('a' + i))
		rank := string(rune('1' + i))
		drawCentered(dst, labelFace, color.Black, file, l.margin+i*l.square+l.square/2, 8*l.square+l.margin/2)
		drawCentered(dst, labelFace, color.Black, rank, l.margin/2, (7-i)*l.square+l.square/2)
	}
	return nil
}

// drawCentered draws s with its visual center at (cx, cy).
func drawCentered(dst *image.RGBA, face font.Face, ink color.Color, s string, cx, cy int) {
	bounds, advance := font.BoundString(face, s)
	height := bounds.Max.Y - bounds.Min.Y

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ink),
		Face: face,
	}
	d.Dot = fixed.Point26_6{
		X: fixed.I(cx) - advance/2,
		Y: fixed.I(cy) + height/2 - bounds.Max.Y,
	}
	d.DrawString(s)
}
