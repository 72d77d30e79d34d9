package notation

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrSyntax    = errors.New("invalid move syntax")
	ErrPromotion = errors.New("invalid promotion piece")
)

type CastleSide int

const (
	NoCastle CastleSide = iota
	KingSide
	QueenSide
)

// Token is the structural reading of a SAN move. Piece is one of PNBRQK.
// FromFile, FromRank and Promotion are zero when absent.
type Token struct {
	Raw       string
	Castle    CastleSide
	Piece     byte
	FromFile  byte
	FromRank  byte
	Capture   bool
	Dest      string
	Promotion byte
	Check     bool
	Mate      bool
}

var (
	pieceMovePattern = regexp.MustCompile(`^([KQRBN])([a-h]?)([1-8]?)(x?)([a-h][1-8])$`)
	pawnMovePattern  = regexp.MustCompile(`^(?:([a-h])(x))?([a-h][1-8])(=(.?))?$`)
)

// Parse checks the shape of a normalized token. It does not look at any
// board; legality is the caller's concern.
func Parse(token string) (Token, error) {
	raw := strings.TrimSpace(token)
	t := Token{Raw: raw}
	s := strings.TrimSuffix(raw, "e.p.")
	s = strings.TrimRight(strings.TrimSpace(s), "!?")
	switch {
	case strings.HasSuffix(s, "#"):
		t.Mate = true
		s = strings.TrimSuffix(s, "#")
	case strings.HasSuffix(s, "+"):
		t.Check = true
		s = strings.TrimSuffix(s, "+")
	}
	if s == "" {
		return t, ErrSyntax
	}

	switch s {
	case "O-O":
		t.Castle = KingSide
		t.Piece = 'K'
		return t, nil
	case "O-O-O":
		t.Castle = QueenSide
		t.Piece = 'K'
		return t, nil
	}

	if m := pieceMovePattern.FindStringSubmatch(s); m != nil {
		t.Piece = m[1][0]
		if m[2] != "" {
			t.FromFile = m[2][0]
		}
		if m[3] != "" {
			t.FromRank = m[3][0]
		}
		t.Capture = m[4] != ""
		t.Dest = m[5]
		return t, nil
	}

	if m := pawnMovePattern.FindStringSubmatch(s); m != nil {
		t.Piece = 'P'
		if m[1] != "" {
			t.FromFile = m[1][0]
			t.Capture = true
		}
		t.Dest = m[3]
		if m[4] != "" {
			p, ok := promotionPiece(m[5])
			if !ok {
				return t, ErrPromotion
			}
			t.Promotion = p
		}
		return t, nil
	}
	return t, ErrSyntax
}

func promotionPiece(s string) (byte, bool) {
	if len(s) != 1 {
		return 0, false
	}
	switch c := strings.ToUpper(s)[0]; c {
	case 'Q', 'R', 'B', 'N':
		return c, true
	default:
		return 0, false
	}
}
