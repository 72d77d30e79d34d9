package scoresheetdto

import "testing"

func TestWellFormedTokensClassifiesBlankColumnsAsEmpty(t *testing.T) {
	got := WellFormedTokens([]string{" ", ""}, nil, "1.")
	if got.Kind != TokensEmpty || got.RawText != "1." {
		t.Fatalf("got %+v", got)
	}
}

func TestWellFormedTokensTrims(t *testing.T) {
	got := WellFormedTokens([]string{" e4 ", "", "Nf3"}, []string{"e5"}, "")
	if got.Kind != TokensWellFormed {
		t.Fatalf("kind = %v", got.Kind)
	}
	if len(got.White) != 2 || got.White[0] != "e4" || got.White[1] != "Nf3" {
		t.Fatalf("white = %v", got.White)
	}
}

func TestDomainErrorMessage(t *testing.T) {
	if got := (DomainError{Code: CodeInternal}).Error(); got != CodeInternal {
		t.Fatalf("got %q", got)
	}
	if got := (DomainError{}).Error(); got != "scoresheet service error" {
		t.Fatalf("got %q", got)
	}
}
