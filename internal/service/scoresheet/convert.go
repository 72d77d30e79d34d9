package scoresheet

import (
	"context"
	"errors"

	"github.com/park285/cheese-scoresheet/internal/domain"
	"github.com/park285/cheese-scoresheet/pkg/scoresheetdto"
)

// gameToDTO copies a stored game. Move views are filled when the
// validation results are at hand.
func gameToDTO(g *domain.ScoresheetGame, white, black *domain.ValidationResult) *scoresheetdto.ScoresheetGame {
	if g == nil {
		return nil
	}
	return &scoresheetdto.ScoresheetGame{
		ID:         g.ID,
		UploadUUID: g.UploadUUID,
		Pages:      g.Pages,
		PGN:        g.PGN,
		Result:     g.Result,
		Metadata: scoresheetdto.GameMetadata{
			White: g.Metadata.White,
			Black: g.Metadata.Black,
			Date:  g.Metadata.Date,
			Round: g.Metadata.Round,
		},
		Stats: scoresheetdto.GameStats{
			TotalMoves:  g.Stats.TotalMoves,
			Valid:       g.Stats.Valid,
			Warnings:    g.Stats.Warnings,
			Errors:      g.Stats.Errors,
			Repaired:    g.Stats.Repaired,
			ECOCode:     g.Stats.ECOCode,
			ECOTitle:    g.Stats.ECOTitle,
			FinalFEN:    g.Stats.FinalFEN,
			MergeIssues: g.Stats.MergeIssues,
		},
		Moves:       moveViews(white, black),
		Warnings:    append([]string(nil), g.Warnings...),
		IsValid:     g.IsValid,
		ProcessedAt: g.ProcessedAt,
	}
}

// moveViews interleaves both columns in move order, white first.
func moveViews(white, black *domain.ValidationResult) []scoresheetdto.MoveView {
	if white == nil && black == nil {
		return nil
	}
	var views []scoresheetdto.MoveView
	wi, bi := 0, 0
	wm, bm := movesOf(white), movesOf(black)
	for wi < len(wm) || bi < len(bm) {
		if bi >= len(bm) || (wi < len(wm) && wm[wi].MoveNumber <= bm[bi].MoveNumber) {
			views = append(views, moveView(wm[wi], "white"))
			wi++
			continue
		}
		views = append(views, moveView(bm[bi], "black"))
		bi++
	}
	return views
}

func movesOf(r *domain.ValidationResult) []domain.NumberedMove {
	if r == nil {
		return nil
	}
	return r.Moves
}

func moveView(m domain.NumberedMove, side string) scoresheetdto.MoveView {
	return scoresheetdto.MoveView{
		MoveNumber: m.MoveNumber,
		Side:       side,
		Notation:   m.Notation,
		Normalized: m.NormalizedNotation,
		Status:     string(m.Status),
		Message:    m.Message,
	}
}

func mergeToDTO(m *domain.MergeResult) *scoresheetdto.MergeSummary {
	if m == nil {
		return nil
	}
	out := &scoresheetdto.MergeSummary{
		Warnings:   append([]string(nil), m.Warnings...),
		HasGap:     m.HasGap,
		HasOverlap: m.HasOverlap,
		IsValid:    m.IsValid,
	}
	if m.GapSize != nil {
		out.GapSize = *m.GapSize
	}
	if m.OverlapMoves != nil {
		out.OverlapMoves = *m.OverlapMoves
	}
	return out
}

// ToDomainError maps service errors onto the transport error codes.
func ToDomainError(err error) scoresheetdto.DomainError {
	switch {
	case err == nil:
		return scoresheetdto.DomainError{}
	case errors.Is(err, ErrNoMoveData):
		return scoresheetdto.DomainError{Code: scoresheetdto.CodeNoMoveData, Message: err.Error()}
	case errors.Is(err, ErrExtractionFailed):
		return scoresheetdto.DomainError{Code: scoresheetdto.CodeExtractionFailed, Message: err.Error(), Retryable: true}
	case errors.Is(err, ErrUploadNotFound), errors.Is(err, ErrGameNotFound):
		return scoresheetdto.DomainError{Code: scoresheetdto.CodeUploadNotFound, Message: err.Error()}
	case errors.Is(err, ErrInvalidRequest):
		return scoresheetdto.DomainError{Code: scoresheetdto.CodeInvalidRequest, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return scoresheetdto.DomainError{Code: scoresheetdto.CodeExtractionFailed, Message: err.Error(), Retryable: true}
	default:
		return scoresheetdto.DomainError{Code: scoresheetdto.CodeInternal, Message: err.Error()}
	}
}
