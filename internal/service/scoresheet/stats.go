package scoresheet

import (
	"strings"

	"github.com/park285/cheese-scoresheet/internal/chess"
	"github.com/park285/cheese-scoresheet/internal/domain"
)

type replayOutcome struct {
	board *chess.Board
	// applied counts the plies replayed before the first gap or mismatch.
	applied      int
	complete     bool
	lastRepaired bool
}

// replayPairs plays the validated game from the start position. A row with
// a missing side ends the replay there.
func replayPairs(pairs []domain.MovePair) replayOutcome {
	var (
		sans     []string
		repaired []bool
	)
	for _, p := range pairs {
		if p.WhiteMove == nil {
			break
		}
		sans = append(sans, p.WhiteMove.Text())
		repaired = append(repaired, p.WhiteMove.Status != domain.StatusValid)
		if p.BlackMove == nil {
			break
		}
		sans = append(sans, p.BlackMove.Text())
		repaired = append(repaired, p.BlackMove.Status != domain.StatusValid)
	}
	if len(sans) == 0 {
		return replayOutcome{}
	}
	board, applied, err := chess.Replay(sans)
	out := replayOutcome{board: board, applied: applied, complete: err == nil}
	if applied > 0 {
		out.lastRepaired = repaired[applied-1]
	}
	return out
}

func computeStats(white, black *domain.ValidationResult, replay replayOutcome, merged *domain.MergeResult) domain.GameStats {
	var st domain.GameStats
	for _, r := range []*domain.ValidationResult{white, black} {
		if r == nil {
			continue
		}
		for _, mv := range r.Moves {
			if strings.TrimSpace(mv.Notation) == "" {
				continue
			}
			st.TotalMoves++
			switch mv.Status {
			case domain.StatusValid:
				st.Valid++
			case domain.StatusWarning:
				st.Warnings++
				if strings.Contains(mv.Message, "engine suggestion") {
					st.Repaired++
				}
			case domain.StatusError:
				st.Errors++
			}
		}
	}
	if replay.board != nil && replay.applied > 0 {
		st.FinalFEN = replay.board.FEN()
		st.ECOCode, st.ECOTitle = replay.board.Opening()
	}
	if merged != nil {
		st.MergeIssues = len(merged.Warnings)
	}
	return st
}
