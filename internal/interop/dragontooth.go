// Package interop converts boards from the dragontoothmg move generator into positions.
package interop

import (
	"fmt"

	"github.com/dylhunn/dragontoothmg"

	"github.com/hailam/attackboard/internal/board"
)

// FromDragontooth copies the piece bitboards of b into a validated Position.
// Both libraries index squares a1=0 .. h8=63.
func FromDragontooth(b *dragontoothmg.Board) (*board.Position, error) {
	var pieces [2][6]board.Bitboard
	for c, bbs := range [2]*dragontoothmg.Bitboards{&b.White, &b.Black} {
		pieces[c] = [6]board.Bitboard{
			board.Pawn:   board.Bitboard(bbs.Pawns),
			board.Knight: board.Bitboard(bbs.Knights),
			board.Bishop: board.Bitboard(bbs.Bishops),
			board.Rook:   board.Bitboard(bbs.Rooks),
			board.Queen:  board.Bitboard(bbs.Queens),
			board.King:   board.Bitboard(bbs.Kings),
		}
	}

	pos, err := board.NewPositionFromBitboards(pieces)
	if err != nil {
		return nil, err
	}
	if uint64(pos.Occupied(board.White)) != b.White.All || uint64(pos.Occupied(board.Black)) != b.Black.All {
		return nil, fmt.Errorf("occupancy does not match piece bitboards: %w", board.ErrInvalidPosition)
	}
	return pos, nil
}

// SideToMove returns the color to move on b.
func SideToMove(b *dragontoothmg.Board) board.Color {
	if b.Wtomove {
		return board.White
	}
	return board.Black
}

// ParseFEN parses fen with dragontoothmg and returns the position and side to move.
func ParseFEN(fen string) (pos *board.Position, side board.Color, err error) {
	// dragontoothmg panics on malformed input.
	if _, err := board.ParseFEN(fen); err != nil {
		return nil, board.NoColor, err
	}
	defer func() {
		if r := recover(); r != nil {
			pos, side, err = nil, board.NoColor, fmt.Errorf("invalid FEN %q: %v", fen, r)
		}
	}()

	b := dragontoothmg.ParseFen(fen)
	pos, err = FromDragontooth(&b)
	if err != nil {
		return nil, board.NoColor, err
	}
	return pos, SideToMove(&b), nil
}

// SideToMoveInCheck reports whether the side to move on b is in check.
func SideToMoveInCheck(b *dragontoothmg.Board) (bool, error) {
	pos, err := FromDragontooth(b)
	if err != nil {
		return false, err
	}
	return pos.IsInCheck(SideToMove(b))
}
