// Package api exposes attack and check queries over stored positions via HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/hailam/attackboard/internal/board"
	"github.com/hailam/attackboard/internal/render"
	"github.com/hailam/attackboard/internal/storage"
)

// Store is the persistence the server needs; *storage.Storage satisfies it.
type Store interface {
	Save(name string, pos *board.Position) (storage.Record, error)
	Get(name string) (storage.Record, error)
	List() ([]storage.Record, error)
	Delete(name string) error
}

// Server routes HTTP requests to position queries.
type Server struct {
	store  Store
	router *mux.Router
}

// NewServer creates a server over store.
func NewServer(store Store) *Server {
	s := &Server{store: store, router: mux.NewRouter()}

	s.router.Handle("/positions", s.listHandler()).Methods("GET")
	s.router.Handle("/positions", s.createHandler()).Methods("POST")
	s.router.Handle("/positions/{name}", s.getHandler()).Methods("GET")
	s.router.Handle("/positions/{name}", s.deleteHandler()).Methods("DELETE")
	s.router.Handle("/positions/{name}/squares/{square}", s.squareHandler()).Methods("GET")
	s.router.Handle("/positions/{name}/check/{side}", s.checkHandler()).Methods("GET")
	s.router.Handle("/positions/{name}/board.svg", s.svgHandler()).Methods("GET")

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler wraps the server with request logging to logOut and permissive CORS.
func (s *Server) Handler(logOut io.Writer) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedOrigins([]string{"*"}),
	)
	return cors(handlers.LoggingHandler(logOut, s))
}

// CreateRequest is the body of POST /positions. An empty FEN stores the starting position.
type CreateRequest struct {
	Name string `json:"name"`
	FEN  string `json:"fen"`
}

// SquareResponse describes one square of a stored position.
type SquareResponse struct {
	Square     string              `json:"square"`
	Index      int                 `json:"index"`
	Occupied   bool                `json:"occupied"`
	Piece      string              `json:"piece,omitempty"`
	Attacked   bool                `json:"attacked"`
	AttackedBy map[string]bool     `json:"attacked_by"`
	Attackers  map[string][]string `json:"attackers"`
}

// PieceAttackResponse answers a query narrowed to one side and piece kind.
type PieceAttackResponse struct {
	Square   string `json:"square"`
	Side     string `json:"side"`
	Kind     string `json:"kind"`
	Attacked bool   `json:"attacked"`
}

// CheckResponse answers a check query.
type CheckResponse struct {
	Side    string `json:"side"`
	InCheck bool   `json:"in_check"`
}

// ErrorResponse carries an error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// errBadRequest marks client input errors that have no sentinel of their own.
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, board.ErrSquareOutOfRange), errors.Is(err, storage.ErrInvalidName),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, board.ErrInvalidPosition):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func badRequest(err error) error {
	return errors.Join(errBadRequest, err)
}

func (s *Server) position(name string) (*board.Position, error) {
	rec, err := s.store.Get(name)
	if err != nil {
		return nil, err
	}
	return rec.Position()
}

func (s *Server) listHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recs, err := s.store.List()
		if err != nil {
			writeError(w, err)
			return
		}
		if recs == nil {
			recs = []storage.Record{}
		}
		writeJSON(w, http.StatusOK, recs)
	})
}

func (s *Server) createHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, badRequest(err))
			return
		}

		pos := board.NewPosition()
		if req.FEN != "" {
			var err error
			if pos, err = board.ParseFEN(req.FEN); err != nil {
				if !errors.Is(err, board.ErrInvalidPosition) {
					err = badRequest(err)
				}
				writeError(w, err)
				return
			}
		}

		rec, err := s.store.Save(req.Name, pos)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	})
}

func (s *Server) getHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.store.Get(mux.Vars(r)["name"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})
}

func (s *Server) deleteHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.Delete(mux.Vars(r)["name"]); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) squareHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		sq, err := board.ParseSquare(vars["square"])
		if err != nil {
			writeError(w, err)
			return
		}
		pos, err := s.position(vars["name"])
		if err != nil {
			writeError(w, err)
			return
		}

		q := r.URL.Query()
		if q.Get("side") != "" || q.Get("kind") != "" {
			side, err := board.ParseColor(q.Get("side"))
			if err != nil {
				writeError(w, badRequest(err))
				return
			}
			kind, err := board.ParsePieceType(q.Get("kind"))
			if err != nil {
				writeError(w, badRequest(err))
				return
			}
			writeJSON(w, http.StatusOK, PieceAttackResponse{
				Square:   sq.String(),
				Side:     side.String(),
				Kind:     kind.String(),
				Attacked: pos.IsAttackedByPiece(sq, side, kind),
			})
			return
		}

		resp := SquareResponse{
			Square:     sq.String(),
			Index:      int(sq),
			Occupied:   pos.IsOccupied(sq),
			Attacked:   pos.IsAttacked(sq),
			AttackedBy: map[string]bool{},
			Attackers:  map[string][]string{},
		}
		if piece := pos.PieceAt(sq); piece != board.NoPiece {
			resp.Piece = piece.String()
		}
		for c := board.White; c <= board.Black; c++ {
			key := strings.ToLower(c.String())
			resp.AttackedBy[key] = pos.IsAttackedBySide(sq, c)
			names := []string{}
			for _, from := range pos.Attackers(sq, c).Squares() {
				names = append(names, from.String())
			}
			resp.Attackers[key] = names
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) checkHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		side, err := board.ParseColor(vars["side"])
		if err != nil {
			writeError(w, badRequest(err))
			return
		}
		pos, err := s.position(vars["name"])
		if err != nil {
			writeError(w, err)
			return
		}

		inCheck, err := pos.IsInCheck(side)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, CheckResponse{Side: side.String(), InCheck: inCheck})
	})
}

func (s *Server) svgHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		opts := render.Options{Side: board.White}
		q := r.URL.Query()
		if v := q.Get("side"); v != "" {
			side, err := board.ParseColor(v)
			if err != nil {
				writeError(w, badRequest(err))
				return
			}
			opts.Side = side
		}
		if v := q.Get("size"); v != "" {
			size, err := strconv.Atoi(v)
			if err != nil || size <= 0 {
				writeError(w, badRequest(errors.New("invalid size "+strconv.Quote(v))))
				return
			}
			opts.SquareSize = size
		}

		pos, err := s.position(mux.Vars(r)["name"])
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		if err := render.SVG(w, pos, opts); err != nil {
			log.Printf("api: render svg: %v", err)
		}
	})
}
