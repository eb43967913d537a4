package board

import "fmt"

// delta is a (file, rank) step.
type delta struct {
	df, dr int
}

var (
	knightDeltas = [8]delta{
		{1, 2}, {2, 1}, {2, -1}, {1, -2},
		{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
	}
	kingDeltas = [8]delta{
		{0, 1}, {1, 1}, {1, 0}, {1, -1},
		{0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
	}

	orthogonal = [4]delta{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	diagonal   = [4]delta{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
)

// step returns the square one delta away from sq, or false if that leaves the board.
func step(sq Square, d delta) (Square, bool) {
	f, r := sq.File()+d.df, sq.Rank()+d.dr
	if !onBoard(f, r) {
		return NoSquare, false
	}
	return NewSquare(f, r), true
}

// pawnSources returns the squares a pawn of color c must stand on to attack sq.
// White pawns capture towards higher ranks, so their sources sit one rank below.
func pawnSources(sq Square, c Color) Bitboard {
	dr := -1
	if c == Black {
		dr = 1
	}

	var sources Bitboard
	for _, df := range [2]int{-1, 1} {
		src, ok := step(sq, delta{df, dr})
		if !ok {
			continue
		}
		// Same wraparound guard as the board-edge check, stated on files.
		if d := src.File() - sq.File(); d < -1 || d > 1 {
			continue
		}
		sources |= SquareBB(src)
	}
	return sources
}

// leaperSources returns the on-board squares reachable from sq by the given deltas.
// Knight and king moves are symmetric, so these are also the squares attacking sq.
func leaperSources(sq Square, deltas *[8]delta) Bitboard {
	var sources Bitboard
	for _, d := range deltas {
		if src, ok := step(sq, d); ok {
			sources |= SquareBB(src)
		}
	}
	return sources
}

// firstBlocker walks from sq along d and returns the first occupied square.
func (p *Position) firstBlocker(sq Square, d delta) (Square, bool) {
	for {
		next, ok := step(sq, d)
		if !ok {
			return NoSquare, false
		}
		if p.all.IsSet(next) {
			return next, true
		}
		sq = next
	}
}

// rayAttackers returns the blockers seen from sq along dirs that belong to sliders.
func (p *Position) rayAttackers(sq Square, dirs *[4]delta, sliders Bitboard) Bitboard {
	var attackers Bitboard
	for _, d := range dirs {
		if b, ok := p.firstBlocker(sq, d); ok && sliders.IsSet(b) {
			attackers |= SquareBB(b)
		}
	}
	return attackers
}

// rayAttacked is rayAttackers with an early exit.
func (p *Position) rayAttacked(sq Square, dirs *[4]delta, sliders Bitboard) bool {
	if sliders == 0 {
		return false
	}
	for _, d := range dirs {
		if b, ok := p.firstBlocker(sq, d); ok && sliders.IsSet(b) {
			return true
		}
	}
	return false
}

// IsAttackedByPawn reports whether a pawn of color c attacks sq.
func (p *Position) IsAttackedByPawn(sq Square, c Color) bool {
	mustSquare(sq)
	return pawnSources(sq, c)&p.pieces[c][Pawn] != 0
}

// IsAttackedByKnight reports whether a knight of color c attacks sq.
func (p *Position) IsAttackedByKnight(sq Square, c Color) bool {
	mustSquare(sq)
	return leaperSources(sq, &knightDeltas)&p.pieces[c][Knight] != 0
}

// IsAttackedByKing reports whether the king of color c attacks sq.
func (p *Position) IsAttackedByKing(sq Square, c Color) bool {
	mustSquare(sq)
	return leaperSources(sq, &kingDeltas)&p.pieces[c][King] != 0
}

// IsAttackedByBishop reports whether sq is attacked along an open diagonal
// by a bishop or queen of color c.
func (p *Position) IsAttackedByBishop(sq Square, c Color) bool {
	mustSquare(sq)
	return p.rayAttacked(sq, &diagonal, p.diagonalSliders(c))
}

// IsAttackedByRook reports whether sq is attacked along an open rank or file
// by a rook or queen of color c.
func (p *Position) IsAttackedByRook(sq Square, c Color) bool {
	mustSquare(sq)
	return p.rayAttacked(sq, &orthogonal, p.orthogonalSliders(c))
}

// IsAttackedByQueen reports whether sq is attacked along an open rank or file by
// a rook or queen, or along an open diagonal by a bishop or queen, of color c.
func (p *Position) IsAttackedByQueen(sq Square, c Color) bool {
	mustSquare(sq)
	return p.rayAttacked(sq, &orthogonal, p.orthogonalSliders(c)) ||
		p.rayAttacked(sq, &diagonal, p.diagonalSliders(c))
}

func (p *Position) orthogonalSliders(c Color) Bitboard {
	return p.pieces[c][Rook] | p.pieces[c][Queen]
}

func (p *Position) diagonalSliders(c Color) Bitboard {
	return p.pieces[c][Bishop] | p.pieces[c][Queen]
}

// IsAttackedByPiece dispatches to the per-kind attack rule.
func (p *Position) IsAttackedByPiece(sq Square, c Color, pt PieceType) bool {
	switch pt {
	case Pawn:
		return p.IsAttackedByPawn(sq, c)
	case Knight:
		return p.IsAttackedByKnight(sq, c)
	case Bishop:
		return p.IsAttackedByBishop(sq, c)
	case Rook:
		return p.IsAttackedByRook(sq, c)
	case Queen:
		return p.IsAttackedByQueen(sq, c)
	case King:
		return p.IsAttackedByKing(sq, c)
	}
	panic(fmt.Sprintf("board: invalid piece type %d", pt))
}

// IsAttackedBySide reports whether any piece of color c attacks sq.
func (p *Position) IsAttackedBySide(sq Square, c Color) bool {
	return p.IsAttackedByPawn(sq, c) ||
		p.IsAttackedByKnight(sq, c) ||
		p.IsAttackedByBishop(sq, c) ||
		p.IsAttackedByRook(sq, c) ||
		p.IsAttackedByQueen(sq, c) ||
		p.IsAttackedByKing(sq, c)
}

// IsAttacked reports whether either side attacks sq.
func (p *Position) IsAttacked(sq Square) bool {
	return p.IsAttackedBySide(sq, White) || p.IsAttackedBySide(sq, Black)
}

// Attackers returns the squares of all pieces of color c attacking sq.
func (p *Position) Attackers(sq Square, c Color) Bitboard {
	mustSquare(sq)
	us := &p.pieces[c]
	return pawnSources(sq, c)&us[Pawn] |
		leaperSources(sq, &knightDeltas)&us[Knight] |
		leaperSources(sq, &kingDeltas)&us[King] |
		p.rayAttackers(sq, &diagonal, p.diagonalSliders(c)) |
		p.rayAttackers(sq, &orthogonal, p.orthogonalSliders(c))
}

// AttackMap returns every square attacked by color c.
func (p *Position) AttackMap(c Color) Bitboard {
	var m Bitboard
	for sq := A1; sq <= H8; sq++ {
		if p.IsAttackedBySide(sq, c) {
			m |= SquareBB(sq)
		}
	}
	return m
}

// KingSquare returns the square of c's king. It fails with ErrInvalidPosition
// unless exactly one king of that color is on the board.
func (p *Position) KingSquare(c Color) (Square, error) {
	kings := p.pieces[c][King]
	if n := kings.PopCount(); n != 1 {
		return NoSquare, fmt.Errorf("%s has %d kings: %w", c, n, ErrInvalidPosition)
	}
	return kings.LSB(), nil
}

// IsInCheck reports whether c's king is attacked by the opposing side.
// Nothing is cached; the answer always reflects the current bitboards.
func (p *Position) IsInCheck(c Color) (bool, error) {
	ksq, err := p.KingSquare(c)
	if err != nil {
		return false, err
	}
	return p.IsAttackedBySide(ksq, c.Other()), nil
}
