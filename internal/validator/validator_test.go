package validator

import (
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-scoresheet/internal/domain"
)

func TestValidateMovesInvalidSyntax(t *testing.T) {
	res := ValidateMoves([]string{"e4", "invalid", "Nf3"})
	if res.IsValid {
		t.Fatalf("expected invalid result")
	}
	if len(res.Moves) != 3 {
		t.Fatalf("expected 3 moves, got %d", len(res.Moves))
	}
	if res.Moves[1].Status != domain.StatusError {
		t.Fatalf("status = %s, want error", res.Moves[1].Status)
	}
	if !strings.Contains(res.Moves[1].Message, "Invalid move syntax") {
		t.Fatalf("unexpected message %q", res.Moves[1].Message)
	}
	if res.Moves[2].Status != domain.StatusValid || res.Moves[2].NormalizedNotation != "Nf3" {
		t.Fatalf("Nf3 = %+v", res.Moves[2])
	}
	for i, mv := range res.Moves {
		if mv.MoveNumber != i+1 {
			t.Fatalf("move number %d at index %d", mv.MoveNumber, i)
		}
	}
}

func TestValidateMovesConsecutiveChecks(t *testing.T) {
	res := ValidateMoves([]string{"e4", "Qh5+", "Ke7+"})
	if !res.IsValid {
		t.Fatalf("expected valid result, got %+v", res.Moves)
	}
	if res.Moves[0].Status != domain.StatusValid {
		t.Fatalf("e4 status = %s", res.Moves[0].Status)
	}
	for _, i := range []int{1, 2} {
		mv := res.Moves[i]
		if mv.Status != domain.StatusWarning {
			t.Fatalf("move %d status = %s, want warning", i+1, mv.Status)
		}
		if !strings.Contains(mv.Message, MsgConsecutiveCheck) {
			t.Fatalf("move %d message %q", i+1, mv.Message)
		}
	}
	if !strings.Contains(res.Moves[2].Message, "replaced with engine suggestion: Na3") {
		t.Fatalf("repair message %q", res.Moves[2].Message)
	}
	if !strings.Contains(res.Moves[2].Message, "; "+MsgConsecutiveCheck) {
		t.Fatalf("consecutive check text should be appended: %q", res.Moves[2].Message)
	}
	if res.Moves[2].NormalizedNotation != "Na3" {
		t.Fatalf("substitute = %q", res.Moves[2].NormalizedNotation)
	}
}

func TestValidateMovesEmpty(t *testing.T) {
	for _, tokens := range [][]string{nil, {}} {
		res := ValidateMoves(tokens)
		if res.IsValid {
			t.Fatalf("empty input must be invalid")
		}
		if len(res.Moves) != 1 {
			t.Fatalf("expected one entry, got %d", len(res.Moves))
		}
		mv := res.Moves[0]
		if mv.MoveNumber != 0 || mv.Status != domain.StatusError || mv.Message != MsgNoMoves {
			t.Fatalf("unexpected entry %+v", mv)
		}
	}
}

func TestValidateMovesInvalidPromotion(t *testing.T) {
	res := ValidateMoves([]string{"e8=K"})
	if res.IsValid {
		t.Fatalf("expected invalid result")
	}
	if res.Moves[0].Message != MsgInvalidPromotion {
		t.Fatalf("message = %q", res.Moves[0].Message)
	}
}

func TestValidateMovesCastlingVariants(t *testing.T) {
	res := ValidateMoves([]string{"e4", "Nf3", "Bc4", "0-0"})
	if !res.IsValid {
		t.Fatalf("expected valid, got %+v", res.Moves)
	}
	last := res.Moves[3]
	if last.Notation != "0-0" || last.NormalizedNotation != "O-O" || last.Status != domain.StatusValid {
		t.Fatalf("castle = %+v", last)
	}
}

func TestValidateMovesAmbiguousUsesFirstCandidate(t *testing.T) {
	res := ValidateMoves([]string{"Nf3", "d4", "Nd2"})
	mv := res.Moves[2]
	if mv.Status != domain.StatusWarning {
		t.Fatalf("status = %s", mv.Status)
	}
	if mv.NormalizedNotation != "Nbd2" {
		t.Fatalf("normalized = %q, want Nbd2", mv.NormalizedNotation)
	}
	if !strings.Contains(mv.Message, "replaced with engine suggestion: Nbd2") {
		t.Fatalf("message = %q", mv.Message)
	}
}

func TestValidateColumnBlack(t *testing.T) {
	res := New(nil).ValidateColumn([]string{"e5", "Nc6", "Nf6"}, nchess.Black)
	if !res.IsValid {
		t.Fatalf("expected valid, got %+v", res.Moves)
	}
	for _, mv := range res.Moves {
		if mv.Status != domain.StatusValid {
			t.Fatalf("move %d = %+v", mv.MoveNumber, mv)
		}
	}
}

func TestValidateMovesDeterministic(t *testing.T) {
	tokens := []string{"e4", "Zz9", "Ke2", "Kd9", "Qh5+", "Bb5+"}
	first := ValidateMoves(tokens)
	for i := 0; i < 5; i++ {
		again := ValidateMoves(tokens)
		if len(again.Moves) != len(first.Moves) {
			t.Fatalf("length changed")
		}
		for j := range first.Moves {
			if again.Moves[j] != first.Moves[j] {
				t.Fatalf("run %d differs at %d: %+v vs %+v", i, j, again.Moves[j], first.Moves[j])
			}
		}
	}
}

func TestValidateMovesInGameContext(t *testing.T) {
	v := New(nil)
	white := v.ValidateColumn([]string{"e4", "Bc4", "Qh5", "Qxf7#"}, nchess.White)
	black := v.ValidateColumn([]string{"e5", "Nc6", "Nf6", "a6"}, nchess.Black)
	if !white.IsValid || !black.IsValid {
		t.Fatalf("columns should validate alone: %+v %+v", white.Moves, black.Moves)
	}

	v.ValidateMovesInGameContext(white, black)

	if !white.IsValid {
		t.Fatalf("white should stay valid: %+v", white.Moves)
	}
	if white.Moves[3].NormalizedNotation != "Qxf7#" {
		t.Fatalf("mate move = %q", white.Moves[3].NormalizedNotation)
	}
	if black.IsValid {
		t.Fatalf("black move after mate must fail")
	}
	last := black.Moves[3]
	if last.Status != domain.StatusError || last.Message != MsgNoLegalMoves {
		t.Fatalf("last black move = %+v", last)
	}
}

func TestValidateMovesInGameContextRepairsAcrossColors(t *testing.T) {
	v := New(nil)
	// 2...e4 is legal for Black alone but blocked by White's pawn in the game
	white := v.ValidateColumn([]string{"e4", "Nf3"}, nchess.White)
	black := v.ValidateColumn([]string{"e5", "e4"}, nchess.Black)
	if !black.IsValid {
		t.Fatalf("black column should validate alone: %+v", black.Moves)
	}

	v.ValidateMovesInGameContext(white, black)

	mv := black.Moves[1]
	if mv.Status != domain.StatusWarning {
		t.Fatalf("status = %s, want warning (%q)", mv.Status, mv.Message)
	}
	if !strings.Contains(mv.Message, "replaced with engine suggestion:") {
		t.Fatalf("message = %q", mv.Message)
	}
	if mv.Notation != "e4" {
		t.Fatalf("original token must be kept, got %q", mv.Notation)
	}
}

func TestPairs(t *testing.T) {
	white := ValidateMoves([]string{"e4", "Nf3", "invalid"})
	black := New(nil).ValidateColumn([]string{"e5"}, nchess.Black)

	pairs := Pairs(white, black)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].WhiteMove.Text() != "e4" || pairs[0].BlackMove.Text() != "e5" {
		t.Fatalf("pair 1 = %+v", pairs[0])
	}
	if pairs[1].WhiteMove.Text() != "Nf3" || pairs[1].BlackMove != nil {
		t.Fatalf("pair 2 = %+v", pairs[1])
	}
}

func TestValidateMovesInGameContextNoLegalMoves(t *testing.T) {
	v := New(nil)
	white := v.ValidateColumn([]string{"f3", "g4", "Kf2"}, nchess.White)
	black := v.ValidateColumn([]string{"e5", "Qh4#"}, nchess.Black)

	v.ValidateMovesInGameContext(white, black)

	mv := white.Moves[2]
	if mv.Status != domain.StatusError || mv.Message != MsgNoLegalMoves {
		t.Fatalf("move after mate = %+v", mv)
	}
	if white.IsValid {
		t.Fatalf("white should be invalid")
	}
	if !black.IsValid || black.Moves[1].NormalizedNotation != "Qh4#" {
		t.Fatalf("black = %+v", black.Moves)
	}
}

func TestValidateColumnNeverCapturesKing(t *testing.T) {
	res := ValidateMoves([]string{"e4", "Qh5", "Bc4", "Qxf7+", "Qxe8", "Qd7"})
	if res.Moves[3].NormalizedNotation != "Qxf7#" {
		t.Fatalf("mate move = %+v", res.Moves[3])
	}
	mv := res.Moves[4]
	if mv.Status != domain.StatusWarning || mv.NormalizedNotation == "Qxe8" {
		t.Fatalf("king capture accepted: %+v", mv)
	}
	for _, m := range res.Moves {
		if strings.Contains(m.NormalizedNotation, "xe8") {
			t.Fatalf("king capture in column: %+v", m)
		}
	}
}

func TestValidateMovesInGameContextCheckWithMissingReply(t *testing.T) {
	v := New(nil)
	white := v.ValidateColumn([]string{"e4", "Qh5", "Qxf7+", "Qxe8"}, nchess.White)
	black := v.ValidateColumn([]string{"e5", "Nc6", "zz"}, nchess.Black)

	v.ValidateMovesInGameContext(white, black)

	if black.Moves[2].Status != domain.StatusError {
		t.Fatalf("unreadable reply = %+v", black.Moves[2])
	}
	mv := white.Moves[3]
	if mv.Status != domain.StatusWarning || mv.NormalizedNotation == "Qxe8" {
		t.Fatalf("king capture accepted: %+v", mv)
	}
	for _, p := range Pairs(white, black) {
		if p.MoveNumber == 4 && p.WhiteMove != nil && strings.Contains(p.WhiteMove.Text(), "xe8") {
			t.Fatalf("pairs carry a king capture: %+v", p.WhiteMove)
		}
	}
}

func TestValidateMovesInGameContextKeepsBlankColumnValid(t *testing.T) {
	v := New(nil)
	white := v.ValidateColumn([]string{"e4"}, nchess.White)
	black := &domain.ValidationResult{IsValid: true}

	v.ValidateMovesInGameContext(white, black)

	if !white.IsValid || !black.IsValid {
		t.Fatalf("white=%v black=%v", white.IsValid, black.IsValid)
	}
}
