package notation

import (
	"errors"
	"testing"
)

func TestParseShapes(t *testing.T) {
	tests := []struct {
		in   string
		want Token
	}{
		{"e4", Token{Piece: 'P', Dest: "e4"}},
		{"exd5", Token{Piece: 'P', FromFile: 'e', Capture: true, Dest: "d5"}},
		{"Nf3", Token{Piece: 'N', Dest: "f3"}},
		{"Nbd7", Token{Piece: 'N', FromFile: 'b', Dest: "d7"}},
		{"R1e2", Token{Piece: 'R', FromRank: '1', Dest: "e2"}},
		{"Qh4xe1", Token{Piece: 'Q', FromFile: 'h', FromRank: '4', Capture: true, Dest: "e1"}},
		{"Qh5+", Token{Piece: 'Q', Dest: "h5", Check: true}},
		{"Qf7#", Token{Piece: 'Q', Dest: "f7", Mate: true}},
		{"e8=Q", Token{Piece: 'P', Dest: "e8", Promotion: 'Q'}},
		{"dxc1=n+", Token{Piece: 'P', FromFile: 'd', Capture: true, Dest: "c1", Promotion: 'N', Check: true}},
		{"O-O", Token{Piece: 'K', Castle: KingSide}},
		{"O-O-O#", Token{Piece: 'K', Castle: QueenSide, Mate: true}},
		{"Nf3!?", Token{Piece: 'N', Dest: "f3"}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		tt.want.Raw = tt.in
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"invalid", "", "+", "Nz9", "e9", "Kx", "1.", "P4", "e4e5"} {
		if _, err := Parse(in); !errors.Is(err, ErrSyntax) {
			t.Errorf("Parse(%q) err = %v, want ErrSyntax", in, err)
		}
	}
}

func TestParseRejectsBadPromotionPiece(t *testing.T) {
	for _, in := range []string{"e8=K", "e8=X", "a1=P", "h8="} {
		if _, err := Parse(in); !errors.Is(err, ErrPromotion) {
			t.Errorf("Parse(%q) err = %v, want ErrPromotion", in, err)
		}
	}
}
