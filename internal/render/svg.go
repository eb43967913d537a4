// Package render draws attack maps of a position as SVG or PNG.
package render

import (
	"bytes"
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/hailam/attackboard/internal/board"
)

// Board colors
const (
	lightColor         = "#f0d9b5"
	darkColor          = "#b58863"
	lightAttackedColor = "#f2a882"
	darkAttackedColor  = "#c0684a"
	checkColor         = "#d23c3c"
	labelColor         = "#333333"
)

const (
	defaultSquareSize = 48
	minSquareSize     = 16
)

// Options controls what is drawn.
type Options struct {
	// Side is the attacker whose attacked squares are tinted.
	Side board.Color
	// SquareSize is the edge of one square in pixels.
	SquareSize int
}

// layout holds the pixel geometry of a board drawing.
type layout struct {
	square int
	margin int
}

func newLayout(opts Options) layout {
	s := opts.SquareSize
	if s == 0 {
		s = defaultSquareSize
	}
	if s < minSquareSize {
		s = minSquareSize
	}
	return layout{square: s, margin: s / 2}
}

func (l layout) width() int  { return l.margin + 8*l.square }
func (l layout) height() int { return 8*l.square + l.margin }

// origin returns the top-left pixel of a square; rank 8 is drawn on top.
func (l layout) origin(sq board.Square) (int, int) {
	return l.margin + sq.File()*l.square, (7 - sq.Rank()) * l.square
}

func squareColor(sq board.Square, attacked, check bool) string {
	dark := (sq.File()+sq.Rank())%2 == 0
	switch {
	case check:
		return checkColor
	case attacked && dark:
		return darkAttackedColor
	case attacked:
		return lightAttackedColor
	case dark:
		return darkColor
	default:
		return lightColor
	}
}

// checkedKing returns the square of the king attacked by opts.Side, or NoSquare.
func checkedKing(pos *board.Position, side board.Color) board.Square {
	defender := side.Other()
	inCheck, err := pos.IsInCheck(defender)
	if err != nil || !inCheck {
		return board.NoSquare
	}
	ksq, _ := pos.KingSquare(defender)
	return ksq
}

// SVG writes the position as an SVG document with the squares attacked by
// opts.Side tinted and a king in check by opts.Side marked red.
func SVG(w io.Writer, pos *board.Position, opts Options) error {
	var buf bytes.Buffer
	drawSVG(&buf, pos, opts, true)
	_, err := buf.WriteTo(w)
	return err
}

// drawSVG emits the document. Text is left out when the output is rasterized,
// labels are then drawn with a font face instead.
func drawSVG(w io.Writer, pos *board.Position, opts Options, text bool) {
	l := newLayout(opts)
	attacked := pos.AttackMap(opts.Side)
	king := checkedKing(pos, opts.Side)

	canvas := svg.New(w)
	canvas.Startview(l.width(), l.height(), 0, 0, l.width(), l.height())
	if text {
		canvas.Title(fmt.Sprintf("%s attacks: %s", opts.Side, pos.FEN()))
	}
	canvas.Rect(0, 0, l.width(), l.height(), "fill:#ffffff")

	for sq := board.A1; sq <= board.H8; sq++ {
		x, y := l.origin(sq)
		canvas.Rect(x, y, l.square, l.square, "fill:"+squareColor(sq, attacked.IsSet(sq), sq == king))
	}

	r := l.square * 3 / 8
	fontSize := l.square / 2
	for sq := board.A1; sq <= board.H8; sq++ {
		piece := pos.PieceAt(sq)
		if piece == board.NoPiece {
			continue
		}
		x, y := l.origin(sq)
		cx, cy := x+l.square/2, y+l.square/2

		fill, ink := "#ffffff", "#000000"
		if piece.Color() == board.Black {
			fill, ink = "#222222", "#ffffff"
		}
		canvas.Circle(cx, cy, r, fmt.Sprintf("fill:%s;stroke:#000000;stroke-width:1", fill))
		if text {
			canvas.Text(cx, cy+fontSize/3, piece.String(), fmt.Sprintf(
				"text-anchor:middle;font-family:sans-serif;font-weight:bold;font-size:%dpx;fill:%s", fontSize, ink))
		}
	}

	if text {
		labelStyle := fmt.Sprintf("text-anchor:middle;font-family:sans-serif;font-size:%dpx;fill:%s", l.margin*2/3, labelColor)
		for i := 0; i < 8; i++ {
			file := string(rune('a' + i))
			rank := string(rune('1' + i))
			canvas.Text(l.margin+i*l.square+l.square/2, l.height()-l.margin/4, file, labelStyle)
			canvas.Text(l.margin/2, (7-i)*l.square+l.square/2+l.margin/4, rank, labelStyle)
		}
	}

	canvas.End()
}
