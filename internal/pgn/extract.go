package pgn

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/park285/cheese-scoresheet/internal/domain"
	"github.com/park285/cheese-scoresheet/internal/notation"
)

// ErrNoMoveData is returned when movetext is present but no move could be
// placed under a move number.
var ErrNoMoveData = errors.New("pgn: no move data")

var (
	tagLinePattern   = regexp.MustCompile(`(?m)^\s*\[(\w+)\s+"(.*)"\]\s*$`)
	inlineTagPattern = regexp.MustCompile(`\[\w+\s+"[^"\n]*"\]`)
	moveNumPattern   = regexp.MustCompile(`^(\d+)(\.+)(.*)$`)
	scanNumPattern   = regexp.MustCompile(`(?:^|\s)(\d+)\.`)
	nagPattern       = regexp.MustCompile(`^\$\d+$`)
)

var resultTokens = map[string]bool{
	"1-0":     true,
	"0-1":     true,
	"1/2-1/2": true,
	"*":       true,
}

// Source is either a list of raw OCR tokens or PGN text.
type Source struct {
	tokens []string
	text   string
	isText bool
}

func TokenSource(tokens []string) Source { return Source{tokens: tokens} }

func TextSource(text string) Source { return Source{text: text, isText: true} }

func (s Source) movetext() string {
	if s.isText {
		return s.text
	}
	return strings.Join(s.tokens, " ")
}

// ExtractMovePairs reads numbered moves in the forms "n. w b", "n.w" and
// "n... b". The first occurrence of a move number wins; the result is
// ascending by move number.
func ExtractMovePairs(src Source) ([]domain.MovePair, error) {
	return extract(src.movetext())
}

func ExtractFromTokens(tokens []string) ([]domain.MovePair, error) {
	return ExtractMovePairs(TokenSource(tokens))
}

func ExtractFromText(text string) ([]domain.MovePair, error) {
	return ExtractMovePairs(TextSource(text))
}

type sideSlot int

const (
	slotNone sideSlot = iota
	slotWhite
	slotBlack
)

func extract(text string) ([]domain.MovePair, error) {
	fields := strings.Fields(stripMovetext(text))

	rows := map[int]*domain.MovePair{}
	seen := map[int]bool{}
	current, next := 0, slotNone
	skipping := false
	content := 0

	place := func(tok string) {
		if skipping || current == 0 || next == slotNone {
			return
		}
		row := rows[current]
		if row == nil {
			row = &domain.MovePair{MoveNumber: current}
			rows[current] = row
		}
		mv := &domain.ValidatedMove{
			Notation:           tok,
			NormalizedNotation: notation.Normalize(tok),
			Status:             domain.StatusValid,
		}
		if next == slotWhite {
			if row.WhiteMove == nil {
				row.WhiteMove = mv
			}
			next = slotBlack
			return
		}
		if row.BlackMove == nil {
			row.BlackMove = mv
		}
		// an unnumbered token after black continues with the next move
		current++
		next = slotWhite
		skipping = seen[current]
	}

	for _, f := range fields {
		if resultTokens[f] || nagPattern.MatchString(f) {
			continue
		}
		if m := moveNumPattern.FindStringSubmatch(f); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n <= 0 {
				content++
				continue
			}
			blackForm := len(m[2]) >= 3
			switch {
			case blackForm && n == current && !skipping:
				next = slotBlack
			case blackForm:
				row := rows[n]
				skipping = seen[n] && (row == nil || row.BlackMove != nil)
				current, next = n, slotBlack
				seen[n] = true
			default:
				skipping = seen[n]
				current, next = n, slotWhite
				seen[n] = true
			}
			if rest := strings.TrimSpace(m[3]); rest != "" {
				content++
				if isMoveToken(rest) {
					place(rest)
				}
			}
			continue
		}
		content++
		if isMoveToken(f) {
			place(f)
		}
	}

	out := make([]domain.MovePair, 0, len(rows))
	for _, row := range rows {
		if row.IsEmpty() {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MoveNumber < out[j].MoveNumber })

	if len(out) == 0 && content > 0 {
		return nil, ErrNoMoveData
	}
	return out, nil
}

// ScanMoveNumbers returns every "<n>." number found in raw text, in order.
func ScanMoveNumbers(text string) []int {
	var nums []int
	for _, m := range scanNumPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			nums = append(nums, n)
		}
	}
	return nums
}

func isMoveToken(tok string) bool {
	return !strings.ContainsAny(tok, `[]"{}()`)
}

// splitHeader cuts the leading tag section off the text. The section ends
// at the first blank line after a tag or at the first line that is not a
// tag pair.
func splitHeader(text string) (header, body string) {
	lines := strings.SplitAfter(text, "\n")
	i, sawTag := 0, false
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			if sawTag {
				i++
				break
			}
			continue
		}
		if !tagLinePattern.MatchString(line) {
			break
		}
		sawTag = true
	}
	return strings.Join(lines[:i], ""), strings.Join(lines[i:], "")
}

// stripMovetext drops the tag section, comments and variations. A tag pair
// inside movetext is kept as a single non-move token.
func stripMovetext(text string) string {
	_, text = splitHeader(text)
	text = inlineTagPattern.ReplaceAllString(text, " [] ")

	var b strings.Builder
	b.Grow(len(text))
	braces, parens := 0, 0
	lineComment := false
	for _, r := range text {
		switch {
		case lineComment:
			if r == '\n' {
				lineComment = false
				b.WriteRune(' ')
			}
		case r == '{':
			braces++
		case r == '}' && braces > 0:
			braces--
			if braces == 0 {
				b.WriteRune(' ')
			}
		case braces > 0:
		case r == '(':
			parens++
		case r == ')' && parens > 0:
			parens--
			if parens == 0 {
				b.WriteRune(' ')
			}
		case parens > 0:
		case r == ';':
			lineComment = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
