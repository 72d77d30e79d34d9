package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/park285/cheese-scoresheet/internal/domain"
	"github.com/park285/cheese-scoresheet/internal/pgn"
)

// ComputeRange returns the lowest and highest move numbers among non-empty
// pairs, or (0,0) when there are none.
func ComputeRange(moves []domain.MovePair) domain.PageRange {
	var r domain.PageRange
	for _, mv := range moves {
		if mv.IsEmpty() || mv.MoveNumber <= 0 {
			continue
		}
		if r.StartMoveNumber == 0 || mv.MoveNumber < r.StartMoveNumber {
			r.StartMoveNumber = mv.MoveNumber
		}
		if mv.MoveNumber > r.EndMoveNumber {
			r.EndMoveNumber = mv.MoveNumber
		}
	}
	return r
}

// ComputeRangeWithFallback scans rawText for "<n>." tokens when moves
// yields no range.
func ComputeRangeWithFallback(moves []domain.MovePair, rawText string) domain.PageRange {
	if r := ComputeRange(moves); !r.IsEmpty() {
		return r
	}
	var r domain.PageRange
	for _, n := range pgn.ScanMoveNumbers(rawText) {
		if r.StartMoveNumber == 0 || n < r.StartMoveNumber {
			r.StartMoveNumber = n
		}
		if n > r.EndMoveNumber {
			r.EndMoveNumber = n
		}
	}
	return r
}

// MergePages joins two pages of one game. Page 1 wins every disagreement.
func MergePages(page1, page2 []domain.MovePair, r1, r2 domain.PageRange) domain.MergeResult {
	var res domain.MergeResult

	sameStart := r1.StartMoveNumber != 0 && r1.StartMoveNumber == r2.StartMoveNumber
	bothSet := !r1.IsEmpty() && !r2.IsEmpty()

	if sameStart {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"Both uploaded pages start at the same move number (%d). Page 1 was used as the primary ordering.",
			r1.StartMoveNumber))
	}
	switch {
	case bothSet && r2.StartMoveNumber > r1.EndMoveNumber+1:
		gap := r2.StartMoveNumber - r1.EndMoveNumber - 1
		res.HasGap = true
		res.GapSize = &gap
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"Gap detected between pages: %d move(s) missing (page 1 ends at %d, page 2 starts at %d).",
			gap, r1.EndMoveNumber, r2.StartMoveNumber))
	case bothSet && r2.StartMoveNumber <= r1.EndMoveNumber:
		overlap := r1.EndMoveNumber - r2.StartMoveNumber + 1
		res.HasOverlap = true
		res.OverlapMoves = &overlap
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"Pages overlap by %d move(s) (page 1 ends at %d, page 2 starts at %d).",
			overlap, r1.EndMoveNumber, r2.StartMoveNumber))
	}

	merged := map[int]*domain.MovePair{}
	for _, p := range page1 {
		if p.MoveNumber <= 0 || p.IsEmpty() {
			continue
		}
		if _, ok := merged[p.MoveNumber]; ok {
			continue
		}
		cp := p
		merged[p.MoveNumber] = &cp
	}

	second := append([]domain.MovePair(nil), page2...)
	sort.SliceStable(second, func(i, j int) bool { return second[i].MoveNumber < second[j].MoveNumber })
	// page 2 keeps its first row per move number
	taken := map[int]bool{}
	for _, p := range second {
		if p.MoveNumber <= 0 || p.IsEmpty() || taken[p.MoveNumber] {
			continue
		}
		taken[p.MoveNumber] = true
		cur, ok := merged[p.MoveNumber]
		if !ok {
			cp := p
			merged[p.MoveNumber] = &cp
			continue
		}
		if !fill(&cur.WhiteMove, p.WhiteMove) {
			res.Warnings = append(res.Warnings, conflictWarning(p.MoveNumber, "white"))
		}
		if !fill(&cur.BlackMove, p.BlackMove) {
			res.Warnings = append(res.Warnings, conflictWarning(p.MoveNumber, "black"))
		}
	}

	res.MergedMoves = make([]domain.MovePair, 0, len(merged))
	for _, p := range merged {
		res.MergedMoves = append(res.MergedMoves, *p)
	}
	sort.Slice(res.MergedMoves, func(i, j int) bool {
		return res.MergedMoves[i].MoveNumber < res.MergedMoves[j].MoveNumber
	})
	if res.Warnings == nil {
		res.Warnings = []string{}
	}

	res.IsValid = len(res.Warnings) == 0 && !sameStart
	return res
}

// fill copies incoming into an empty slot. It reports false when both
// sides are set and disagree, ignoring case.
func fill(slot **domain.ValidatedMove, incoming *domain.ValidatedMove) bool {
	in := incoming.Text()
	if in == "" {
		return true
	}
	if (*slot).Text() == "" {
		cp := *incoming
		*slot = &cp
		return true
	}
	return strings.EqualFold((*slot).Text(), in)
}

func conflictWarning(moveNumber int, side string) string {
	return fmt.Sprintf("Move %d %s differs between pages. Kept page 1 move.", moveNumber, side)
}
