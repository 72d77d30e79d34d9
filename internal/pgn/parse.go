package pgn

import (
	"strings"

	"github.com/park285/cheese-scoresheet/internal/domain"
)

// Parse reads tags and movetext from PGN text. The result comes from the
// Result tag, else from a trailing result token, else "*".
func Parse(text string) (domain.ParsedGame, error) {
	game := domain.ParsedGame{Tags: map[string]string{}}
	header, _ := splitHeader(text)
	for _, m := range tagLinePattern.FindAllStringSubmatch(header, -1) {
		if _, dup := game.Tags[m[1]]; !dup {
			game.Tags[m[1]] = m[2]
		}
	}
	game.Metadata = domain.GameMetadata{
		White: game.Tags["White"],
		Black: game.Tags["Black"],
		Date:  game.Tags["Date"],
		Round: game.Tags["Round"],
	}

	moves, err := ExtractFromText(text)
	if err != nil {
		return domain.ParsedGame{}, err
	}
	game.Moves = moves

	game.Result = defaultResult
	if r, ok := game.Tags["Result"]; ok && resultTokens[strings.TrimSpace(r)] {
		game.Result = strings.TrimSpace(r)
	} else if fields := strings.Fields(stripMovetext(text)); len(fields) > 0 && resultTokens[fields[len(fields)-1]] {
		game.Result = fields[len(fields)-1]
	}
	return game, nil
}
