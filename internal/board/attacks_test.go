package board

import (
	"errors"
	"sync"
	"testing"
)

func mustFEN(t testing.TB, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("Failed to parse FEN %q: %v", fen, err)
	}
	return pos
}

// single returns a position holding one piece.
func single(t testing.TB, sq Square, c Color, pt PieceType) *Position {
	t.Helper()
	var pieces [2][6]Bitboard
	pieces[c][pt] = SquareBB(sq)
	pos, err := NewPositionFromBitboards(pieces)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

// attackedSet collects every square for which the predicate holds.
func attackedSet(pos *Position, c Color, pt PieceType) Bitboard {
	var bb Bitboard
	for sq := A1; sq <= H8; sq++ {
		if pos.IsAttackedByPiece(sq, c, pt) {
			bb |= SquareBB(sq)
		}
	}
	return bb
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestStartingPositionAttacks(t *testing.T) {
	pos := NewPosition()
	white := pos.AttackMap(White)
	black := pos.AttackMap(Black)

	rank3 := Rank1 << 16
	if white&rank3 != rank3 {
		t.Errorf("white should attack all of rank 3, got:\n%s", white)
	}
	if upper := white &^ (Rank1 | Rank1<<8 | rank3); upper != 0 {
		t.Errorf("white attacks squares beyond rank 3:\n%s", upper)
	}
	if mirror := Rank8 >> 16; black&mirror != mirror {
		t.Errorf("black should attack all of rank 6, got:\n%s", black)
	}

	// Every rank-3 square has a pawn diagonally behind it, the edge files only one.
	for file := 0; file < 8; file++ {
		sq := NewSquare(file, 2)
		if !pos.IsAttackedByPawn(sq, White) {
			t.Errorf("%s should be attacked by a white pawn", sq)
		}
	}
	if got := pos.Attackers(A3, White) & pos.Pieces(White, Pawn); got != SquareBB(B2) {
		t.Errorf("a3 pawn attackers = %v, want [b2]", got.Squares())
	}
	if got := pos.Attackers(B3, White) & pos.Pieces(White, Pawn); got != SquareBB(A2)|SquareBB(C2) {
		t.Errorf("b3 pawn attackers = %v, want [a2 c2]", got.Squares())
	}
	if got := pos.Attackers(C3, White); got != SquareBB(B1)|SquareBB(B2)|SquareBB(D2) {
		t.Errorf("c3 attackers = %v, want [b1 b2 d2]", got.Squares())
	}

	for sq := A1; sq <= H8; sq++ {
		if pos.IsAttacked(sq) != (white.IsSet(sq) || black.IsSet(sq)) {
			t.Errorf("IsAttacked(%s) disagrees with the attack maps", sq)
		}
	}
}

func TestStartingPositionBishopsBlocked(t *testing.T) {
	pos := NewPosition()
	// The d1 queen sees c2 and e2 along its diagonals.
	want := SquareBB(B2) | SquareBB(C2) | SquareBB(D2) | SquareBB(E2) | SquareBB(G2)
	if got := attackedSet(pos, White, Bishop); got != want {
		t.Fatalf("white diagonal attacks = %v, want %v", got.Squares(), want.Squares())
	}
	if got := pos.Attackers(B2, White); !got.IsSet(C1) {
		t.Errorf("c1 bishop should attack its own pawn on b2, attackers = %v", got.Squares())
	}
}

func TestRookAloneOnA1(t *testing.T) {
	pos := single(t, A1, White, Rook)
	var want Bitboard
	for sq := A1; sq <= H8; sq++ {
		if sq != A1 && (sq.File() == 0 || sq.Rank() == 0) {
			want |= SquareBB(sq)
		}
	}

	if got := attackedSet(pos, White, Rook); got != want {
		t.Fatalf("rook on a1 attacks:\n%swant:\n%s", got, want)
	}
	if got := attackedSet(pos, Black, Rook); got != 0 {
		t.Errorf("black has no rook but attacks:\n%s", got)
	}
	if got := attackedSet(pos, White, Queen); got != want {
		t.Errorf("queen query should see the rook's rays:\n%swant:\n%s", got, want)
	}
	if got := attackedSet(pos, White, Bishop); got != 0 {
		t.Errorf("rook has no diagonal rays:\n%s", got)
	}
}

func TestQueenAloneOnA1(t *testing.T) {
	pos := single(t, A1, White, Queen)

	if !pos.IsAttackedByRook(A5, White) {
		t.Error("queen on a1 should answer the rook query for a5")
	}
	if !pos.IsAttackedByBishop(C3, White) {
		t.Error("queen on a1 should answer the bishop query for c3")
	}
	if pos.IsAttackedByRook(C3, White) {
		t.Error("c3 is not on an orthogonal ray from a1")
	}
	if pos.IsAttackedByBishop(A5, White) {
		t.Error("a5 is not on a diagonal ray from a1")
	}
	if !pos.IsAttackedByQueen(A5, White) || !pos.IsAttackedByQueen(H8, White) {
		t.Error("queen on a1 should attack a5 and h8")
	}
}

func TestRookBlockedOnA4(t *testing.T) {
	for _, blocker := range []Piece{NewPiece(Pawn, Black), NewPiece(Knight, White)} {
		t.Run(blocker.String(), func(t *testing.T) {
			var pieces [2][6]Bitboard
			pieces[White][Rook] = SquareBB(A1)
			pieces[blocker.Color()][blocker.Type()] |= SquareBB(A4)
			pos, err := NewPositionFromBitboards(pieces)
			if err != nil {
				t.Fatal(err)
			}

			for _, sq := range []Square{A2, A3, A4, B1, H1} {
				if !pos.IsAttackedByRook(sq, White) {
					t.Errorf("%s should be attacked", sq)
				}
			}
			for _, sq := range []Square{A5, A6, A7, A8, B2} {
				if pos.IsAttackedByRook(sq, White) {
					t.Errorf("%s should not be attacked past the blocker", sq)
				}
			}
		})
	}
}

func TestSliderRayMatching(t *testing.T) {
	// Queen on d4, bishop on g7, rook on d8 behind the queen.
	pos := mustFEN(t, "3r4/6b1/8/8/3q4/8/8/8 b - -")

	if !pos.IsAttackedByQueen(A1, Black) || !pos.IsAttackedByQueen(H4, Black) {
		t.Error("queen should attack along diagonals and ranks")
	}
	if !pos.IsAttackedByBishop(A1, Black) {
		t.Error("queen on d4 is the first diagonal blocker from a1")
	}
	if !pos.IsAttackedByBishop(E5, Black) {
		t.Error("bishop on g7 reaches e5")
	}
	if !pos.IsAttackedByRook(D3, Black) {
		t.Error("queen on d4 is the first orthogonal blocker from d3")
	}
	if pos.IsAttackedByRook(E5, Black) {
		t.Error("e5 has no rook or queen on its open ranks and files")
	}
	if !pos.IsAttackedByRook(D4, Black) {
		t.Error("rook on d8 attacks the queen square itself")
	}
	if pos.IsAttackedByQueen(D4, White) || pos.IsAttackedByRook(D3, White) {
		t.Error("white has no sliders")
	}
	if got := pos.Attackers(D4, Black); got != SquareBB(G7)|SquareBB(D8) {
		t.Errorf("d4 attackers = %v, want [g7 d8]", got.Squares())
	}
	if got := pos.Attackers(F6, Black); got != SquareBB(D4)|SquareBB(G7) {
		t.Errorf("f6 attackers = %v, want [d4 g7]", got.Squares())
	}
	// A white pawn on the ray blocks and does not count for black.
	blocked := mustFEN(t, "3r4/6b1/8/8/3q4/2P5/8/8 b - -")
	if blocked.IsAttackedByBishop(A1, Black) {
		t.Error("white pawn on c3 screens a1 from the queen")
	}
}

func TestSlidersMatchOpenBoardRays(t *testing.T) {
	for sq := A1; sq <= H8; sq++ {
		for _, pt := range []PieceType{Bishop, Rook, Queen} {
			pos := single(t, sq, White, pt)
			got := attackedSet(pos, White, pt)

			var want Bitboard
			for target := A1; target <= H8; target++ {
				if target == sq {
					continue
				}
				df := abs(target.File() - sq.File())
				dr := abs(target.Rank() - sq.Rank())
				straight := df == 0 || dr == 0
				diag := df == dr
				if (pt == Rook && straight) || (pt == Bishop && diag) || (pt == Queen && (straight || diag)) {
					want |= SquareBB(target)
				}
			}

			if got != want {
				t.Fatalf("%s on %s attacks:\n%swant:\n%s", pt, sq, got, want)
			}
		}
	}
}

func TestLeapersNeverWrap(t *testing.T) {
	for sq := A1; sq <= H8; sq++ {
		for _, pt := range []PieceType{Knight, King} {
			pos := single(t, sq, Black, pt)
			got := attackedSet(pos, Black, pt)

			var want Bitboard
			for target := A1; target <= H8; target++ {
				df := abs(target.File() - sq.File())
				dr := abs(target.Rank() - sq.Rank())
				knight := (df == 1 && dr == 2) || (df == 2 && dr == 1)
				king := df <= 1 && dr <= 1 && target != sq
				if (pt == Knight && knight) || (pt == King && king) {
					want |= SquareBB(target)
				}
			}

			if got != want {
				t.Fatalf("%s on %s attacks:\n%swant:\n%s", pt, sq, got, want)
			}
		}
	}

	pos := single(t, A1, White, Knight)
	if got, want := attackedSet(pos, White, Knight), SquareBB(B3)|SquareBB(C2); got != want {
		t.Errorf("knight on a1 attacks %v, want [c2 b3]", got.Squares())
	}
}

func TestPawnsNeverWrap(t *testing.T) {
	for sq := A2; sq <= H7; sq++ {
		for c := White; c <= Black; c++ {
			pos := single(t, sq, c, Pawn)
			got := attackedSet(pos, c, Pawn)

			forward := 1
			if c == Black {
				forward = -1
			}
			var want Bitboard
			for target := A1; target <= H8; target++ {
				if target.Rank()-sq.Rank() == forward && abs(target.File()-sq.File()) == 1 {
					want |= SquareBB(target)
				}
			}

			if got != want {
				t.Fatalf("%s pawn on %s attacks %v, want %v", c, sq, got.Squares(), want.Squares())
			}
		}
	}

	// The raw +7/+9 offsets from the edge files land on the far side of the board.
	if single(t, A2, White, Pawn).IsAttackedByPawn(H2, White) {
		t.Error("pawn on a2 must not attack h2")
	}
	if single(t, H2, White, Pawn).IsAttackedByPawn(A4, White) {
		t.Error("pawn on h2 must not attack a4")
	}
	if single(t, A7, Black, Pawn).IsAttackedByPawn(H5, Black) {
		t.Error("pawn on a7 must not attack h5")
	}
}

func TestIsInCheck(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		side  Color
		check bool
	}{
		{"start white", StartFEN, White, false},
		{"start black", StartFEN, Black, false},
		{"rook on rank", "4k3/8/8/8/8/8/8/4K2r w - -", White, true},
		{"rook blocked", "4k3/8/8/8/8/8/8/4KB1r w - -", White, false},
		{"back rank mate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", Black, true},
		{"pawn check", "4k3/3P4/8/8/8/8/8/4K3 b - -", Black, true},
		{"pawn behind king", "4k3/8/8/8/8/8/8/3pK3 w - -", White, false},
		{"black pawn check", "4k3/8/8/8/8/8/5p2/4K3 w - -", White, true},
		{"knight check", "4k3/8/3N4/8/8/8/8/4K3 b - -", Black, true},
		{"queen diagonal", "4k3/8/8/q7/8/8/8/4K3 w - -", White, true},
		{"queen diagonal blocked", "4k3/8/8/q7/8/2P5/8/4K3 w - -", White, false},
		{"kiwipete", kiwipeteFEN, White, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := mustFEN(t, tc.fen)
			got, err := pos.IsInCheck(tc.side)
			if err != nil {
				t.Fatalf("IsInCheck: %v", err)
			}
			if got != tc.check {
				t.Errorf("IsInCheck(%s) = %t, want %t\n%s", tc.side, got, tc.check, pos)
			}
		})
	}
}

func TestIsInCheckInvalidKingCount(t *testing.T) {
	for _, fen := range []string{
		"8/8/8/8/8/8/8/8 w - -",
		"4k3/8/8/8/8/8/8/8 w - -",
		"4k3/8/8/8/8/8/8/K3K3 w - -",
	} {
		pos := mustFEN(t, fen)
		if _, err := pos.IsInCheck(White); !errors.Is(err, ErrInvalidPosition) {
			t.Errorf("%s: expected ErrInvalidPosition, got %v", fen, err)
		}
	}
}

func TestConcurrentQueries(t *testing.T) {
	pos := mustFEN(t, kiwipeteFEN)
	want := pos.AttackMap(Black)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := pos.AttackMap(Black); got != want {
				t.Errorf("concurrent AttackMap = %x, want %x", uint64(got), uint64(want))
			}
		}()
	}
	wg.Wait()
}

func BenchmarkIsAttacked(b *testing.B) {
	pos := mustFEN(b, kiwipeteFEN)
	for i := 0; i < b.N; i++ {
		for sq := A1; sq <= H8; sq++ {
			pos.IsAttacked(sq)
		}
	}
}

func BenchmarkIsInCheck(b *testing.B) {
	pos := mustFEN(b, kiwipeteFEN)
	for i := 0; i < b.N; i++ {
		pos.IsInCheck(White)
	}
}
