package scoresheetdto

import "strings"

// TokenKind tags what the OCR collaborator returned for one page.
type TokenKind int

const (
	TokensEmpty TokenKind = iota
	TokensMalformed
	TokensWellFormed
)

func (k TokenKind) String() string {
	switch k {
	case TokensMalformed:
		return "malformed"
	case TokensWellFormed:
		return "well_formed"
	default:
		return "empty"
	}
}

// RawMoveTokens is the OCR output for one scoresheet page. White and Black
// are set for WellFormed; RawText carries whatever text the reader produced
// and is the only payload of a Malformed page. StartMoveNumber is the first
// row number printed on the page; zero means 1.
type RawMoveTokens struct {
	Kind            TokenKind
	White           []string
	Black           []string
	StartMoveNumber int
	RawText         string
	Reason          string
}

// FirstMoveNumber returns StartMoveNumber with the zero default applied.
func (t RawMoveTokens) FirstMoveNumber() int {
	if t.StartMoveNumber <= 0 {
		return 1
	}
	return t.StartMoveNumber
}

func EmptyTokens() RawMoveTokens { return RawMoveTokens{Kind: TokensEmpty} }

func MalformedTokens(rawText, reason string) RawMoveTokens {
	return RawMoveTokens{Kind: TokensMalformed, RawText: rawText, Reason: reason}
}

// WellFormedTokens classifies two columns, falling back to Empty when both
// hold nothing but blanks.
func WellFormedTokens(white, black []string, rawText string) RawMoveTokens {
	white, black = compact(white), compact(black)
	if len(white) == 0 && len(black) == 0 {
		t := EmptyTokens()
		t.RawText = rawText
		return t
	}
	return RawMoveTokens{Kind: TokensWellFormed, White: white, Black: black, RawText: rawText}
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
