package scoresheet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-scoresheet/internal/domain"
	"github.com/park285/cheese-scoresheet/internal/msgcat"
	"github.com/park285/cheese-scoresheet/internal/pgn"
	"github.com/park285/cheese-scoresheet/internal/preview"
	"github.com/park285/cheese-scoresheet/internal/validator"
	"github.com/park285/cheese-scoresheet/pkg/scoresheetdto"
)

// ReviewOptions configures an offline review of transcribed movetext.
type ReviewOptions struct {
	Metadata scoresheetdto.GameMetadata
	// Result overrides the result read from the first page.
	Result   string
	Renderer preview.Renderer
	Catalog  *msgcat.Catalog
	Logger   *zap.Logger
}

// Review validates one or two pages of PGN or movetext without OCR or
// storage. Two pages are merged first. Tags of the first page fill metadata
// the options leave blank.
func Review(ctx context.Context, pages []string, opts ReviewOptions) (*scoresheetdto.ProcessResponse, error) {
	if len(pages) == 0 || len(pages) > 2 {
		return nil, fmt.Errorf("%w: review takes one or two pages, got %d", ErrInvalidRequest, len(pages))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	parsed := make([]*page, 0, len(pages))
	var first domain.ParsedGame
	for i, text := range pages {
		game, err := pgn.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		if i == 0 {
			first = game
		}
		parsed = append(parsed, &page{pairs: game.Moves, rawText: text})
	}

	meta := mergeMetadata(metadataFromDTO(opts.Metadata), first.Metadata)
	result := opts.Result
	if strings.TrimSpace(result) == "" {
		result = first.Result
	}

	v := validator.New(logger.Named("validator"))
	var out processed
	if len(parsed) == 2 {
		merged := mergeTwo(parsed[0], parsed[1])
		out = validateRows(v, merged.MergedMoves, meta, result, &merged)
	} else {
		out = validateRows(v, parsed[0].pairs, meta, result, nil)
	}

	game := &domain.ScoresheetGame{
		Pages:       len(pages),
		PGN:         out.pgn,
		Result:      out.result,
		Metadata:    meta,
		Stats:       out.stats,
		IsValid:     !out.white.HasErrors() && !out.black.HasErrors(),
		ProcessedAt: time.Now().UTC(),
	}
	if out.merge != nil {
		game.Warnings = append(game.Warnings, out.merge.Warnings...)
		game.IsValid = game.IsValid && out.merge.IsValid
	}

	resp := &scoresheetdto.ProcessResponse{
		Game:    gameToDTO(game, out.white, out.black),
		Merge:   mergeToDTO(out.merge),
		Summary: summaryText(opts.Catalog, game, false),
	}
	if opts.Renderer != nil {
		resp.Preview = renderPreview(ctx, opts.Renderer, logger, game, out)
	}
	return resp, nil
}

func mergeMetadata(primary, fallback domain.GameMetadata) domain.GameMetadata {
	if primary.White == "" {
		primary.White = fallback.White
	}
	if primary.Black == "" {
		primary.Black = fallback.Black
	}
	if primary.Date == "" {
		primary.Date = fallback.Date
	}
	if primary.Round == "" {
		primary.Round = fallback.Round
	}
	return primary
}
