package chess

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"

	"github.com/park285/cheese-scoresheet/internal/notation"
)

// ErrNotReplayable marks a ply with no unique legal reading.
var ErrNotReplayable = errors.New("ply has no unique legal move")

// Board is the evolving position of one validation pass. It is owned by a
// single caller and never shared; Clone gives a disposable copy.
type Board struct {
	game  *nchess.Game
	plies []string
	last  *Candidate
}

func NewBoard() *Board {
	return &Board{game: nchess.NewGame()}
}

// NewBoardForSide starts from the initial position with side to move.
func NewBoardForSide(side nchess.Color) (*Board, error) {
	b := NewBoard()
	if side == nchess.Black {
		if err := b.PassTurn(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func NewBoardFromFEN(fen string) (*Board, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "startpos" {
		return NewBoard(), nil
	}
	option, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	return &Board{game: nchess.NewGame(option)}, nil
}

func (b *Board) Clone() *Board {
	return &Board{
		game:  b.game.Clone(),
		plies: append([]string(nil), b.plies...),
		last:  b.last,
	}
}

func (b *Board) Position() *nchess.Position {
	return b.game.Position()
}

func (b *Board) Side() nchess.Color {
	return b.game.Position().Turn()
}

func (b *Board) FEN() string {
	return b.game.FEN()
}

// Plies returns the SAN of every move applied through this board.
func (b *Board) Plies() []string {
	return append([]string(nil), b.plies...)
}

// Apply plays a candidate produced by GenerateLegalMoves for this position.
func (b *Board) Apply(c Candidate) error {
	mv := c.move
	if err := b.game.Move(&mv, nil); err != nil {
		// a finished game refuses further moves; continue from a fresh game
		// at the same position
		fresh, ferr := NewBoardFromFEN(b.game.FEN())
		if ferr != nil {
			return fmt.Errorf("apply move %s: %w", c.UCI, err)
		}
		retry := c.move
		if rerr := fresh.game.Move(&retry, nil); rerr != nil {
			return fmt.Errorf("apply move %s: %w", c.UCI, rerr)
		}
		b.game = fresh.game
	}
	b.plies = append(b.plies, c.SAN)
	applied := c
	b.last = &applied
	return nil
}

// LastMove returns the most recent candidate applied to the board.
func (b *Board) LastMove() (Candidate, bool) {
	if b.last == nil {
		return Candidate{}, false
	}
	return *b.last, true
}

// PassTurn hands the move to the other side without playing anything. A
// scoresheet column lists one player's moves only, so a column pass keeps
// the same side to move by passing after every ply.
func (b *Board) PassTurn() error {
	fields := strings.Fields(b.game.FEN())
	if len(fields) < 4 {
		return fmt.Errorf("unexpected fen %q", b.game.FEN())
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	option, err := nchess.FEN(strings.Join(fields, " "))
	if err != nil {
		return fmt.Errorf("pass turn: %w", err)
	}
	b.game = nchess.NewGame(option)
	return nil
}

// Opening looks up the ECO classification of the moves played so far.
func (b *Board) Opening() (string, string) {
	if b == nil || b.game == nil {
		return "", ""
	}
	book := opening.NewBookECO()
	if book == nil {
		return "", ""
	}
	if eco := book.Find(b.game.Moves()); eco != nil {
		return eco.Code(), eco.Title()
	}
	return "", ""
}

// Replay plays SAN plies from the initial position, alternating sides. It
// stops at the first ply that does not match exactly one legal move and
// reports how many plies were applied.
func Replay(sans []string) (*Board, int, error) {
	b := NewBoard()
	for i, san := range sans {
		tok, err := notation.Parse(notation.Normalize(san))
		if err != nil {
			return b, i, fmt.Errorf("replay ply %d %q: %w", i+1, san, err)
		}
		matches := Match(b, tok)
		if len(matches) != 1 {
			return b, i, fmt.Errorf("replay ply %d %q: %w", i+1, san, ErrNotReplayable)
		}
		if err := b.Apply(matches[0]); err != nil {
			return b, i, err
		}
	}
	return b, len(sans), nil
}
