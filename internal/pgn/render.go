package pgn

import (
	"fmt"
	"strings"

	"github.com/park285/cheese-scoresheet/internal/domain"
)

const (
	defaultDate   = "????.??.??"
	defaultPlayer = "?"
	defaultResult = "*"
)

// Render writes moves as PGN with the Date, Round, White, Black and Result
// tags. Round is written only when set.
func Render(moves []domain.MovePair, meta domain.GameMetadata, result string) string {
	result = NormalizeResult(result)

	var b strings.Builder
	writeTag(&b, "Date", orDefault(meta.Date, defaultDate))
	if round := sanitize(meta.Round); round != "" {
		writeTag(&b, "Round", round)
	}
	writeTag(&b, "White", orDefault(meta.White, defaultPlayer))
	writeTag(&b, "Black", orDefault(meta.Black, defaultPlayer))
	writeTag(&b, "Result", result)
	b.WriteString("\n")

	for _, mv := range moves {
		white, black := mv.WhiteMove.Text(), mv.BlackMove.Text()
		switch {
		case white != "" && black != "":
			fmt.Fprintf(&b, "%d. %s %s ", mv.MoveNumber, white, black)
		case white != "":
			fmt.Fprintf(&b, "%d. %s ", mv.MoveNumber, white)
		case black != "":
			fmt.Fprintf(&b, "%d... %s ", mv.MoveNumber, black)
		}
	}
	b.WriteString(result)
	b.WriteString("\n")
	return b.String()
}

// NormalizeResult maps anything but a PGN result token to "*".
func NormalizeResult(result string) string {
	result = strings.TrimSpace(result)
	if resultTokens[result] {
		return result
	}
	return defaultResult
}

func writeTag(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "[%s \"%s\"]\n", name, value)
}

func orDefault(v, def string) string {
	if s := sanitize(v); s != "" {
		return s
	}
	return def
}

var tagValueReplacer = strings.NewReplacer(`\`, "", `"`, "", "\r", " ", "\n", " ")

// sanitize drops backslashes and quotes from a tag value.
func sanitize(s string) string {
	return strings.TrimSpace(tagValueReplacer.Replace(s))
}
