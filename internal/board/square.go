// Package board implements a bitboard chess position and answers attack and check queries over it.
package board

import (
	"errors"
	"fmt"
)

// ErrSquareOutOfRange is returned when a square index or name falls outside the board.
var ErrSquareOutOfRange = errors.New("square out of range")

// Square is a board index 0-63.
// Little-Endian Rank-File Mapping: A1=0, H1=7, A8=56, H8=63.
type Square uint8

const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
	NoSquare Square = 64
)

// File returns the file of the square (0=a, 7=h).
func (sq Square) File() int {
	return int(sq) % 8
}

// Rank returns the rank of the square (0=1st rank, 7=8th rank).
func (sq Square) Rank() int {
	return int(sq) / 8
}

// IsValid reports whether the square lies on the board.
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// String returns the algebraic name of the square, e.g. "e4".
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.File(), '1'+sq.Rank())
}

// NewSquare builds a square from a 0-indexed file and rank.
// The caller is responsible for keeping both in [0,7]; see onBoard.
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// onBoard reports whether a file/rank pair is inside [0,7]x[0,7].
func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}

// CheckSquare validates a raw index at an API boundary.
func CheckSquare(index int) (Square, error) {
	if index < 0 || index >= int(NoSquare) {
		return NoSquare, fmt.Errorf("index %d: %w", index, ErrSquareOutOfRange)
	}
	return Square(index), nil
}

// ParseSquare parses algebraic notation ("e4") or a decimal index ("28").
func ParseSquare(s string) (Square, error) {
	if len(s) == 2 && s[0] >= 'a' && s[0] <= 'z' {
		file := int(s[0] - 'a')
		rank := int(s[1]) - '1'
		if !onBoard(file, rank) {
			return NoSquare, fmt.Errorf("%q: %w", s, ErrSquareOutOfRange)
		}
		return NewSquare(file, rank), nil
	}

	index := 0
	if s == "" || len(s) > 3 {
		return NoSquare, fmt.Errorf("%q: %w", s, ErrSquareOutOfRange)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return NoSquare, fmt.Errorf("%q: %w", s, ErrSquareOutOfRange)
		}
		index = index*10 + int(c-'0')
	}
	return CheckSquare(index)
}

// mustSquare panics on an out-of-range square. Queries treat that as a caller bug.
func mustSquare(sq Square) {
	if !sq.IsValid() {
		panic(fmt.Sprintf("board: %d: %v", sq, ErrSquareOutOfRange))
	}
}
