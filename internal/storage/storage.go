package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	uuid "github.com/satori/go.uuid"

	"github.com/hailam/attackboard/internal/board"
)

var (
	// ErrNotFound is returned when no position is stored under a name.
	ErrNotFound = errors.New("position not found")
	// ErrInvalidName is returned for names that are empty or contain '/' or whitespace.
	ErrInvalidName = errors.New("invalid position name")
)

const keyPrefix = "position/"

// Record is a stored position. Pieces holds the twelve bitboards in
// [White P N B R Q K, Black P N B R Q K] order.
type Record struct {
	ID      uuid.UUID  `json:"id"`
	Name    string     `json:"name"`
	Pieces  [12]uint64 `json:"pieces"`
	FEN     string     `json:"fen"`
	SavedAt time.Time  `json:"saved_at"`
}

// Position rebuilds and re-validates the stored position.
func (r *Record) Position() (*board.Position, error) {
	var pieces [2][6]board.Bitboard
	for i, bb := range r.Pieces {
		pieces[i/6][i%6] = board.Bitboard(bb)
	}
	return board.NewPositionFromBitboards(pieces)
}

func newRecord(name string, pos *board.Position) Record {
	r := Record{
		ID:      uuid.NewV4(),
		Name:    name,
		FEN:     pos.FEN(),
		SavedAt: time.Now().UTC(),
	}
	bbs := pos.Bitboards()
	for c := range bbs {
		for pt, bb := range bbs[c] {
			r.Pieces[c*6+pt] = uint64(bb)
		}
	}
	return r
}

// Storage wraps BadgerDB for persistent storage.
type Storage struct {
	db *badger.DB
}

// Open opens (or creates) a position database in dir.
// An empty dir selects the default data directory.
func Open(dir string) (*Storage, error) {
	if dir == "" {
		var err error
		if dir, err = GetDatabaseDir(); err != nil {
			return nil, err
		}
	}
	return open(badger.DefaultOptions(dir))
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Storage, error) {
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open position store: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func key(name string) []byte {
	return []byte(keyPrefix + name)
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, "/ \t\n") {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

// Save stores pos under name, replacing any previous position of that name.
func (s *Storage) Save(name string, pos *board.Position) (Record, error) {
	if err := validName(name); err != nil {
		return Record{}, err
	}

	rec := newRecord(name, pos)
	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(name), data)
	})
	if err != nil {
		return Record{}, fmt.Errorf("save %s: %w", name, err)
	}
	return rec, nil
}

// Get returns the record stored under name.
func (s *Storage) Get(name string) (Record, error) {
	var rec Record

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return Record{}, fmt.Errorf("load %s: %w", name, err)
	}
	return rec, nil
}

// Load returns the position stored under name.
func (s *Storage) Load(name string) (*board.Position, error) {
	rec, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	return rec.Position()
}

// List returns all stored records ordered by name.
func (s *Storage) List() ([]Record, error) {
	var recs []Record

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})

	return recs, err
}

// Delete removes the position stored under name.
func (s *Storage) Delete(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key(name)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete %s: %w", name, ErrNotFound)
			}
			return err
		}
		return txn.Delete(key(name))
	})
}
