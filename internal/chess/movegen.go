package chess

import (
	"sort"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-scoresheet/internal/notation"
)

// Candidate is one legal move in a position.
type Candidate struct {
	SAN    string
	UCI    string
	From   nchess.Square
	To     nchess.Square
	Piece  nchess.PieceType
	Promo  nchess.PieceType
	Castle notation.CastleSide
	move   nchess.Move
}

var promoOrder = map[nchess.PieceType]int{
	nchess.NoPieceType: 0,
	nchess.Queen:       1,
	nchess.Rook:        2,
	nchess.Bishop:      3,
	nchess.Knight:      4,
}

// GenerateLegalMoves lists every legal move of the side to move, ordered by
// origin square (a1 first), then destination square, then promotion piece
// (Q, R, B, N). Captures of a king are never listed. The same position
// always yields the same list.
func GenerateLegalMoves(b *Board) []Candidate {
	if b == nil || b.game == nil {
		return nil
	}
	pos := b.game.Position()
	board := pos.Board()
	san := nchess.AlgebraicNotation{}

	moves := pos.ValidMoves()
	out := make([]Candidate, 0, len(moves))
	for _, mv := range moves {
		m := mv
		// a handed-back turn can leave the other king in check; taking it is not a move
		if board.Piece(m.S2()).Type() == nchess.King {
			continue
		}
		piece := board.Piece(m.S1()).Type()
		c := Candidate{
			SAN:   san.Encode(pos, &m),
			UCI:   m.String(),
			From:  m.S1(),
			To:    m.S2(),
			Piece: piece,
			Promo: m.Promo(),
			move:  m,
		}
		if piece == nchess.King {
			switch int(m.S2().File()) - int(m.S1().File()) {
			case 2:
				c.Castle = notation.KingSide
			case -2:
				c.Castle = notation.QueenSide
			}
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return promoOrder[out[i].Promo] < promoOrder[out[j].Promo]
	})
	return out
}

// Match returns the legal moves consistent with a parsed token, in canonical
// order. Capture marks are not required to agree with the board.
func Match(b *Board, tok notation.Token) []Candidate {
	var out []Candidate
	for _, c := range GenerateLegalMoves(b) {
		if matches(c, tok) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c Candidate, tok notation.Token) bool {
	if tok.Castle != notation.NoCastle {
		return c.Castle == tok.Castle
	}
	if c.Castle != notation.NoCastle {
		return false
	}
	if pieceLetter(c.Piece) != tok.Piece {
		return false
	}
	if c.To.String() != tok.Dest {
		return false
	}
	from := c.From.String()
	if tok.FromFile != 0 && from[0] != tok.FromFile {
		return false
	}
	if tok.FromRank != 0 && from[1] != tok.FromRank {
		return false
	}
	return pieceLetter(c.Promo) == tok.Promotion
}

func pieceLetter(pt nchess.PieceType) byte {
	switch pt {
	case nchess.King:
		return 'K'
	case nchess.Queen:
		return 'Q'
	case nchess.Rook:
		return 'R'
	case nchess.Bishop:
		return 'B'
	case nchess.Knight:
		return 'N'
	case nchess.Pawn:
		return 'P'
	default:
		return 0
	}
}
