package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/hailam/attackboard/internal/api"
	"github.com/hailam/attackboard/internal/board"
	"github.com/hailam/attackboard/internal/render"
	"github.com/hailam/attackboard/internal/storage"
)

var (
	fenFlag    = flag.String("fen", board.StartFEN, "position to analyse (FEN, only the placement field is used)")
	loadFlag   = flag.String("load", "", "load a stored position by name instead of -fen")
	saveFlag   = flag.String("save", "", "store the position under this name")
	dbFlag     = flag.String("db", "", "database directory (default $ATTACKBOARD_DB or the user data dir)")
	sideFlag   = flag.String("side", "white", "attacking side to highlight")
	squareFlag = flag.String("square", "", "square to query, e.g. e4 or 28")
	kindFlag   = flag.String("kind", "", "narrow -square to one piece kind, e.g. rook")
	svgFlag    = flag.String("svg", "", "write an SVG attack map to this file")
	pngFlag    = flag.String("png", "", "write a PNG attack map to this file")
	serveFlag  = flag.String("serve", "", "serve the HTTP API on this address (default $ATTACKBOARD_ADDR)")
	noColor    = flag.Bool("nocolor", false, "disable colored output")
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("attackboard: ")

	if *noColor {
		color.NoColor = true
	}

	dbDir := *dbFlag
	if dbDir == "" {
		dbDir = os.Getenv("ATTACKBOARD_DB")
	}
	addr := *serveFlag
	if addr == "" {
		addr = os.Getenv("ATTACKBOARD_ADDR")
	}

	if addr != "" {
		if err := serve(addr, dbDir); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := run(os.Stdout, dbDir); err != nil {
		log.Fatal(err)
	}
}

func serve(addr, dbDir string) error {
	store, err := storage.Open(dbDir)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := api.NewServer(store)
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, srv.Handler(os.Stderr))
}

func run(out io.Writer, dbDir string) error {
	side, err := board.ParseColor(*sideFlag)
	if err != nil {
		return err
	}

	var store *storage.Storage
	if *loadFlag != "" || *saveFlag != "" {
		if store, err = storage.Open(dbDir); err != nil {
			return err
		}
		defer store.Close()
	}

	var pos *board.Position
	if *loadFlag != "" {
		pos, err = store.Load(*loadFlag)
	} else {
		pos, err = board.ParseFEN(*fenFlag)
	}
	if err != nil {
		return err
	}

	printBoard(out, pos, side)
	printChecks(out, pos)

	if *squareFlag != "" {
		if err := printSquare(out, pos, *squareFlag, *kindFlag, side); err != nil {
			return err
		}
	}

	if *saveFlag != "" {
		rec, err := store.Save(*saveFlag, pos)
		if err != nil {
			return err
		}
		log.Printf("saved %s (%s)", rec.Name, rec.ID)
	}

	if *svgFlag != "" {
		if err := writeFile(*svgFlag, func(w io.Writer) error {
			return render.SVG(w, pos, render.Options{Side: side})
		}); err != nil {
			return err
		}
	}
	if *pngFlag != "" {
		if err := writeFile(*pngFlag, func(w io.Writer) error {
			return render.PNG(w, pos, render.Options{Side: side})
		}); err != nil {
			return err
		}
	}
	return nil
}

var (
	attackedLight = color.New(color.BgYellow, color.FgBlack).SprintFunc()
	attackedDark  = color.New(color.BgHiYellow, color.FgBlack).SprintFunc()
	checkedKing   = color.New(color.BgRed, color.FgHiWhite, color.Bold).SprintFunc()
	whitePiece    = color.New(color.FgHiWhite, color.Bold).SprintFunc()
	blackPiece    = color.New(color.FgHiBlue, color.Bold).SprintFunc()
)

// printBoard prints the position with squares attacked by side highlighted.
func printBoard(out io.Writer, pos *board.Position, side board.Color) {
	attacked := pos.AttackMap(side)
	defender := side.Other()
	inCheck, _ := pos.IsInCheck(defender)

	fmt.Fprintln(out, "  +-----------------+")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(out, "%d |", rank+1)
		for file := 0; file < 8; file++ {
			sq := board.NewSquare(file, rank)
			piece := pos.PieceAt(sq)

			cell := piece.String()
			switch {
			case piece == board.NoPiece:
			case piece.Color() == board.White:
				cell = whitePiece(cell)
			default:
				cell = blackPiece(cell)
			}

			switch {
			case inCheck && piece == board.NewPiece(board.King, defender):
				cell = checkedKing(piece.String())
			case attacked.IsSet(sq) && (file+rank)%2 == 0:
				cell = attackedDark(piece.String())
			case attacked.IsSet(sq):
				cell = attackedLight(piece.String())
			}
			fmt.Fprint(out, " "+cell)
		}
		fmt.Fprintln(out, " |")
	}
	fmt.Fprintln(out, "  +-----------------+")
	fmt.Fprintln(out, "    a b c d e f g h")
	fmt.Fprintf(out, "%d squares attacked by %s\n", attacked.PopCount(), side)
}

func printChecks(out io.Writer, pos *board.Position) {
	for c := board.White; c <= board.Black; c++ {
		inCheck, err := pos.IsInCheck(c)
		switch {
		case errors.Is(err, board.ErrInvalidPosition):
			fmt.Fprintf(out, "%s: %v\n", c, err)
		case inCheck:
			fmt.Fprintf(out, "%s is in check\n", c)
		default:
			fmt.Fprintf(out, "%s is not in check\n", c)
		}
	}
}

func printSquare(out io.Writer, pos *board.Position, name, kind string, side board.Color) error {
	sq, err := board.ParseSquare(name)
	if err != nil {
		return err
	}

	if kind != "" {
		pt, err := board.ParsePieceType(kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s attacked by %s %s: %t\n", sq, side, strings.ToLower(pt.String()), pos.IsAttackedByPiece(sq, side, pt))
		return nil
	}

	fmt.Fprintf(out, "%s (index %d): occupied=%t attacked=%t\n", sq, sq, pos.IsOccupied(sq), pos.IsAttacked(sq))
	for c := board.White; c <= board.Black; c++ {
		fmt.Fprintf(out, "  %s attackers: %v\n", c, pos.Attackers(sq, c).Squares())
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return nil
}
