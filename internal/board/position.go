package board

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPosition reports a violated position invariant: two pieces sharing a
// square, or a side without exactly one king when check is queried.
var ErrInvalidPosition = errors.New("invalid position")

// Position is an immutable set of twelve piece bitboards, one per (color, kind).
// Occupancy aggregates are derived once at construction.
// A Position is safe for concurrent queries.
type Position struct {
	pieces   [2][6]Bitboard
	occupied [2]Bitboard
	all      Bitboard
}

// placement puts one piece on one square.
type placement struct {
	sq Square
	c  Color
	pt PieceType
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// startingPlacements is the standard initial arrangement.
var startingPlacements = func() []placement {
	ps := make([]placement, 0, 32)
	for file := 0; file < 8; file++ {
		ps = append(ps,
			placement{NewSquare(file, 0), White, backRank[file]},
			placement{NewSquare(file, 1), White, Pawn},
			placement{NewSquare(file, 6), Black, Pawn},
			placement{NewSquare(file, 7), Black, backRank[file]},
		)
	}
	return ps
}()

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	var pieces [2][6]Bitboard
	for _, p := range startingPlacements {
		pieces[p.c][p.pt] = pieces[p.c][p.pt].Set(p.sq)
	}
	pos, err := NewPositionFromBitboards(pieces)
	if err != nil {
		panic(err)
	}
	return pos
}

// NewPositionFromBitboards builds a Position from raw piece bitboards indexed
// [Color][PieceType]. It fails with ErrInvalidPosition if two boards share a square.
func NewPositionFromBitboards(pieces [2][6]Bitboard) (*Position, error) {
	p := &Position{pieces: pieces}

	for c := White; c <= Black; c++ {
		for _, pt := range PieceTypes {
			bb := pieces[c][pt]
			if clash := p.all & bb; clash != 0 {
				return nil, fmt.Errorf("%s %s on occupied square %s: %w",
					c, pt, clash.LSB(), ErrInvalidPosition)
			}
			p.occupied[c] |= bb
			p.all |= bb
		}
	}

	return p, nil
}

// Bitboards returns a copy of the twelve piece bitboards.
func (p *Position) Bitboards() [2][6]Bitboard {
	return p.pieces
}

// Pieces returns the bitboard of pieces of one kind and color.
func (p *Position) Pieces(c Color, pt PieceType) Bitboard {
	return p.pieces[c][pt]
}

// Occupied returns all squares held by one side.
func (p *Position) Occupied(c Color) Bitboard {
	return p.occupied[c]
}

// AllOccupied returns all squares held by either side.
func (p *Position) AllOccupied() Bitboard {
	return p.all
}

// IsOccupied reports whether any piece stands on sq.
func (p *Position) IsOccupied(sq Square) bool {
	mustSquare(sq)
	return (p.all>>sq)&1 == 1
}

// PieceAt returns the piece on sq, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	mustSquare(sq)
	bb := SquareBB(sq)
	if p.all&bb == 0 {
		return NoPiece
	}

	c := White
	if p.occupied[Black]&bb != 0 {
		c = Black
	}
	for _, pt := range PieceTypes {
		if p.pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// String draws the position with rank 8 on top, as a framed grid of FEN letters.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("  +-----------------+\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d |", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteByte(' ')
			sb.WriteString(p.PieceAt(NewSquare(file, rank)).String())
		}
		sb.WriteString(" |\n")
	}
	sb.WriteString("  +-----------------+\n")
	sb.WriteString("    a b c d e f g h\n")
	return sb.String()
}
