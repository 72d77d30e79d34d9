package scoresheet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/park285/cheese-scoresheet/internal/domain"
	"github.com/park285/cheese-scoresheet/internal/merge"
	"github.com/park285/cheese-scoresheet/internal/msgcat"
	"github.com/park285/cheese-scoresheet/internal/pgn"
	"github.com/park285/cheese-scoresheet/internal/preview"
	"github.com/park285/cheese-scoresheet/internal/validator"
	"github.com/park285/cheese-scoresheet/pkg/scoresheetdto"
)

var (
	ErrUploadNotFound   = errors.New("pending scoresheet upload not found")
	ErrExtractionFailed = errors.New("scoresheet extraction failed")
	ErrNoMoveData       = pgn.ErrNoMoveData
	ErrGameNotFound     = errors.New("scoresheet game not found")
	ErrInvalidRequest   = errors.New("invalid scoresheet request")
)

const (
	defaultPendingTTL = 24 * time.Hour
	defaultHistory    = 10
	maxHistoryLimit   = 50
)

// Extractor reads the move columns of one scoresheet image.
type Extractor interface {
	Extract(ctx context.Context, page scoresheetdto.PageImage) (scoresheetdto.RawMoveTokens, error)
}

type Config struct {
	PendingTTL     time.Duration
	HistoryLimit   int
	PreviewEnabled bool
}

type Service struct {
	extractor Extractor
	repo      Repository
	pages     PageStore
	renderer  preview.Renderer
	catalog   *msgcat.Catalog
	validator *validator.Validator
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the upload flows. renderer and catalog may be nil.
func NewService(extractor Extractor, repo Repository, pages PageStore, renderer preview.Renderer, catalog *msgcat.Catalog, cfg Config, logger *zap.Logger) (*Service, error) {
	if extractor == nil {
		return nil, fmt.Errorf("scoresheet extractor is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("scoresheet repository is required")
	}
	if pages == nil {
		return nil, fmt.Errorf("pending page store is required")
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = defaultPendingTTL
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = defaultHistory
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		extractor: extractor,
		repo:      repo,
		pages:     pages,
		renderer:  renderer,
		catalog:   catalog,
		validator: validator.New(logger.Named("validator")),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// page is one extracted scoresheet page before validation.
type page struct {
	pairs   []domain.MovePair
	rawText string
}

// processed is a validated game ready to persist.
type processed struct {
	white, black *domain.ValidationResult
	pairs        []domain.MovePair
	merge        *domain.MergeResult
	pgn          string
	result       string
	stats        domain.GameStats
	replay       replayOutcome
}

// ProcessUpload validates a single page, stores the game and keeps the page
// pending so a continuation can be merged onto it.
func (s *Service) ProcessUpload(ctx context.Context, req scoresheetdto.UploadRequest) (*scoresheetdto.ProcessResponse, error) {
	p, err := s.readPage(ctx, req.Page)
	if err != nil {
		return nil, err
	}
	if len(p.pairs) == 0 {
		return nil, ErrNoMoveData
	}

	meta := metadataFromDTO(req.Metadata)
	out := validateRows(s.validator, p.pairs, meta, req.Result, nil)

	game, err := s.persist(ctx, req.Meta, 1, meta, out)
	if err != nil {
		return nil, err
	}

	pending := &PendingPage{
		UploadUUID: game.UploadUUID,
		OwnerHash:  game.OwnerHash,
		GameID:     game.ID,
		PGN:        out.pgn,
		RawText:    p.rawText,
		Metadata:   meta,
		CreatedAt:  game.ProcessedAt,
	}
	if err := s.pages.SavePending(ctx, pending, s.cfg.PendingTTL); err != nil {
		s.logger.Warn("failed to store pending page", zap.String("upload_uuid", game.UploadUUID), zap.Error(err))
	}

	return s.respond(ctx, game, out, true), nil
}

// ProcessDualUpload reads both pages concurrently. The merge runs only when
// both extractions succeed.
func (s *Service) ProcessDualUpload(ctx context.Context, req scoresheetdto.DualUploadRequest) (*scoresheetdto.ProcessResponse, error) {
	var first, second *page
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.readPage(gctx, req.Page1)
		if err != nil {
			return fmt.Errorf("page 1: %w", err)
		}
		first = p
		return nil
	})
	g.Go(func() error {
		p, err := s.readPage(gctx, req.Page2)
		if err != nil {
			return fmt.Errorf("page 2: %w", err)
		}
		second = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(first.pairs) == 0 && len(second.pairs) == 0 {
		return nil, ErrNoMoveData
	}

	meta := metadataFromDTO(req.Metadata)
	merged := mergeTwo(first, second)
	out := validateRows(s.validator, merged.MergedMoves, meta, req.Result, &merged)

	game, err := s.persist(ctx, req.Meta, 2, meta, out)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, game, out, false), nil
}

// ProcessContinuation merges a second page onto a pending first page.
func (s *Service) ProcessContinuation(ctx context.Context, req scoresheetdto.ContinuationRequest) (*scoresheetdto.ProcessResponse, error) {
	id := strings.TrimSpace(req.UploadUUID)
	if id == "" {
		return nil, fmt.Errorf("%w: continuation id is required", ErrInvalidRequest)
	}
	pending, err := s.pages.LoadPending(ctx, id)
	if err != nil {
		return nil, err
	}
	owner := hashString(normalizeOwner(req.Meta.Owner))
	if pending == nil || pending.OwnerHash != owner {
		return nil, ErrUploadNotFound
	}

	firstPairs, err := pgn.ExtractMovePairs(pgn.TextSource(pending.PGN))
	if err != nil {
		return nil, fmt.Errorf("pending page: %w", err)
	}
	first := &page{pairs: firstPairs, rawText: pending.PGN}

	second, err := s.readPage(ctx, req.Page)
	if err != nil {
		return nil, err
	}

	result := req.Result
	if strings.TrimSpace(result) == "" {
		if parsed, perr := pgn.Parse(pending.PGN); perr == nil {
			result = parsed.Result
		}
	}

	merged := mergeTwo(first, second)
	out := validateRows(s.validator, merged.MergedMoves, pending.Metadata, result, &merged)

	meta := req.Meta
	if strings.TrimSpace(meta.RequestID) == "" {
		meta.RequestID = id + ":2"
	}
	game, err := s.persist(ctx, meta, 2, pending.Metadata, out)
	if err != nil {
		return nil, err
	}
	if err := s.pages.DeletePending(ctx, id); err != nil {
		s.logger.Warn("failed to delete pending page", zap.String("upload_uuid", id), zap.Error(err))
	}
	return s.respond(ctx, game, out, false), nil
}

func (s *Service) History(ctx context.Context, req scoresheetdto.HistoryRequest) (*scoresheetdto.HistoryResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > maxHistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	games, err := s.repo.GetRecentGames(ctx, hashString(normalizeOwner(req.Meta.Owner)), limit)
	if err != nil {
		return nil, err
	}
	out := make([]*scoresheetdto.ScoresheetGame, 0, len(games))
	for _, g := range games {
		out = append(out, gameToDTO(g, nil, nil))
	}
	return &scoresheetdto.HistoryResponse{Games: out}, nil
}

func (s *Service) Game(ctx context.Context, req scoresheetdto.GameRequest) (*scoresheetdto.GameResponse, error) {
	game, err := s.repo.GetGame(ctx, req.GameID, hashString(normalizeOwner(req.Meta.Owner)))
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return &scoresheetdto.GameResponse{Game: gameToDTO(game, nil, nil)}, nil
}

// PendingUploads lists the continuation ids still open for an owner.
func (s *Service) PendingUploads(ctx context.Context, meta scoresheetdto.RequestMeta) ([]string, error) {
	return s.pages.PendingByOwner(ctx, hashString(normalizeOwner(meta.Owner)))
}

func (s *Service) readPage(ctx context.Context, img scoresheetdto.PageImage) (*page, error) {
	tokens, err := s.extractor.Extract(ctx, img)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return pageFromTokens(tokens)
}

// pageFromTokens lays OCR columns out as numbered rows. A malformed reply
// is read back as movetext.
func pageFromTokens(tokens scoresheetdto.RawMoveTokens) (*page, error) {
	switch tokens.Kind {
	case scoresheetdto.TokensWellFormed:
		return &page{pairs: columnsToPairs(tokens.White, tokens.Black, tokens.FirstMoveNumber()), rawText: tokens.RawText}, nil
	case scoresheetdto.TokensMalformed:
		pairs, err := pgn.ExtractMovePairs(pgn.TextSource(tokens.RawText))
		if err != nil {
			return nil, err
		}
		if len(pairs) == 0 {
			return nil, ErrNoMoveData
		}
		return &page{pairs: pairs, rawText: tokens.RawText}, nil
	default:
		return &page{rawText: tokens.RawText}, nil
	}
}

func columnsToPairs(white, black []string, start int) []domain.MovePair {
	n := len(white)
	if len(black) > n {
		n = len(black)
	}
	pairs := make([]domain.MovePair, 0, n)
	for i := 0; i < n; i++ {
		p := domain.MovePair{MoveNumber: start + i}
		if i < len(white) && strings.TrimSpace(white[i]) != "" {
			p.WhiteMove = &domain.ValidatedMove{Notation: white[i]}
		}
		if i < len(black) && strings.TrimSpace(black[i]) != "" {
			p.BlackMove = &domain.ValidatedMove{Notation: black[i]}
		}
		if !p.IsEmpty() {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

func mergeTwo(first, second *page) domain.MergeResult {
	r1 := merge.ComputeRangeWithFallback(first.pairs, first.rawText)
	r2 := merge.ComputeRangeWithFallback(second.pairs, second.rawText)
	return merge.MergePages(first.pairs, second.pairs, r1, r2)
}

// validate checks the rows column by column, then as one game, and renders
// the result.
func validateRows(v *validator.Validator, rows []domain.MovePair, meta domain.GameMetadata, result string, merged *domain.MergeResult) processed {
	var (
		whiteTokens, blackTokens []string
		whiteNums, blackNums     []int
	)
	for _, row := range rows {
		if row.WhiteMove != nil && strings.TrimSpace(row.WhiteMove.Notation) != "" {
			whiteTokens = append(whiteTokens, row.WhiteMove.Notation)
			whiteNums = append(whiteNums, row.MoveNumber)
		}
		if row.BlackMove != nil && strings.TrimSpace(row.BlackMove.Notation) != "" {
			blackTokens = append(blackTokens, row.BlackMove.Notation)
			blackNums = append(blackNums, row.MoveNumber)
		}
	}

	white := validateSide(v, whiteTokens, len(blackTokens) > 0, nchess.White)
	black := validateSide(v, blackTokens, len(whiteTokens) > 0, nchess.Black)
	renumber(white, whiteNums)
	renumber(black, blackNums)
	v.ValidateMovesInGameContext(white, black)

	pairs := validator.Pairs(white, black)
	result = pgn.NormalizeResult(result)
	out := processed{
		white:  white,
		black:  black,
		pairs:  pairs,
		merge:  merged,
		pgn:    pgn.Render(pairs, meta, result),
		result: result,
	}
	out.replay = replayPairs(pairs)
	out.stats = computeStats(white, black, out.replay, merged)
	return out
}

// validateSide leaves a blank column without the "no moves" error when the
// other column has moves, e.g. a page that ends on a white move.
func validateSide(v *validator.Validator, tokens []string, otherHasMoves bool, side nchess.Color) *domain.ValidationResult {
	if len(tokens) == 0 && otherHasMoves {
		return &domain.ValidationResult{IsValid: true}
	}
	return v.ValidateColumn(tokens, side)
}

func renumber(r *domain.ValidationResult, nums []int) {
	if len(nums) == 0 {
		return
	}
	for i := range r.Moves {
		if i < len(nums) {
			r.Moves[i].MoveNumber = nums[i]
		}
	}
}

func (s *Service) persist(ctx context.Context, reqMeta scoresheetdto.RequestMeta, pages int, meta domain.GameMetadata, out processed) (*domain.ScoresheetGame, error) {
	uploadUUID := strings.TrimSpace(reqMeta.RequestID)
	if uploadUUID == "" {
		uploadUUID = uuid.NewString()
	}
	owner := hashString(normalizeOwner(reqMeta.Owner))

	var warnings []string
	isValid := !out.white.HasErrors() && !out.black.HasErrors()
	if out.merge != nil {
		warnings = append(warnings, out.merge.Warnings...)
		isValid = isValid && out.merge.IsValid
	}

	game := &domain.ScoresheetGame{
		UploadUUID:  uploadUUID,
		OwnerHash:   owner,
		Pages:       pages,
		PGN:         out.pgn,
		Result:      out.result,
		Metadata:    meta,
		Stats:       out.stats,
		Warnings:    warnings,
		IsValid:     isValid,
		ProcessedAt: s.now().UTC(),
	}

	id, err := s.repo.InsertGame(ctx, game)
	if errors.Is(err, ErrDuplicateGame) {
		existing, ferr := s.repo.GetGameByUpload(ctx, uploadUUID, owner)
		if ferr != nil || existing == nil {
			return nil, err
		}
		s.logger.Info("scoresheet upload already processed", zap.String("upload_uuid", uploadUUID), zap.Int64("game_id", existing.ID))
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	game.ID = id

	s.logger.Info("scoresheet processed",
		zap.Int64("game_id", id),
		zap.String("upload_uuid", uploadUUID),
		zap.Int("pages", pages),
		zap.Int("moves", out.stats.TotalMoves),
		zap.Int("warnings", out.stats.Warnings),
		zap.Int("errors", out.stats.Errors),
		zap.Bool("valid", isValid),
	)
	return game, nil
}

func (s *Service) respond(ctx context.Context, game *domain.ScoresheetGame, out processed, pending bool) *scoresheetdto.ProcessResponse {
	resp := &scoresheetdto.ProcessResponse{
		Game:    gameToDTO(game, out.white, out.black),
		Summary: summaryText(s.catalog, game, pending),
	}
	if out.merge != nil {
		resp.Merge = mergeToDTO(out.merge)
	}
	if s.cfg.PreviewEnabled && s.renderer != nil {
		resp.Preview = renderPreview(ctx, s.renderer, s.logger, game, out)
	}
	return resp
}

func renderPreview(ctx context.Context, renderer preview.Renderer, logger *zap.Logger, game *domain.ScoresheetGame, out processed) []byte {
	board := out.replay.board
	if board == nil {
		return nil
	}
	opts := preview.Options{
		Header: fmt.Sprintf("%s vs %s", orUnknown(game.Metadata.White), orUnknown(game.Metadata.Black)),
		Footer: fmt.Sprintf("%d moves, %s", game.Stats.TotalMoves, game.Result),
	}
	if last, ok := board.LastMove(); ok {
		opts.Highlight = &preview.Highlight{From: last.From, To: last.To}
		if out.replay.lastRepaired {
			opts.Marked = []nchess.Square{last.To}
		}
	}
	data, err := renderer.RenderPNG(ctx, board.Position().Board(), opts)
	if err != nil {
		logger.Warn("failed to render scoresheet preview", zap.Error(err))
		return nil
	}
	return data
}

func summaryText(catalog *msgcat.Catalog, game *domain.ScoresheetGame, pending bool) string {
	st := game.Stats
	lines := []string{catalog.RenderOr("scoresheet.summary", map[string]any{
		"ID": game.ID, "TotalMoves": st.TotalMoves, "Valid": st.Valid, "Warnings": st.Warnings, "Errors": st.Errors,
	}, fmt.Sprintf("Game #%d: %d moves.", game.ID, st.TotalMoves))}
	if st.Repaired > 0 {
		lines = append(lines, catalog.RenderOr("scoresheet.repaired", map[string]any{"Repaired": st.Repaired},
			fmt.Sprintf("%d move(s) repaired.", st.Repaired)))
	}
	if st.ECOCode != "" {
		lines = append(lines, catalog.RenderOr("scoresheet.opening", map[string]any{"Code": st.ECOCode, "Title": st.ECOTitle},
			st.ECOCode+" "+st.ECOTitle))
	}
	for _, w := range game.Warnings {
		lines = append(lines, catalog.RenderOr("scoresheet.merge_issue", map[string]any{"Warning": w}, w))
	}
	if !game.IsValid {
		lines = append(lines, catalog.RenderOr("scoresheet.invalid", nil, "The game contains errors."))
	}
	if pending {
		lines = append(lines, catalog.RenderOr("scoresheet.pending", map[string]any{"UploadUUID": game.UploadUUID},
			"Continuation id: "+game.UploadUUID))
	}
	return strings.Join(lines, "\n")
}

func metadataFromDTO(m scoresheetdto.GameMetadata) domain.GameMetadata {
	return domain.GameMetadata{
		White: strings.TrimSpace(m.White),
		Black: strings.TrimSpace(m.Black),
		Date:  strings.TrimSpace(m.Date),
		Round: strings.TrimSpace(m.Round),
	}
}

func normalizeOwner(owner string) string {
	return strings.ToLower(strings.TrimSpace(owner))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "?"
	}
	return s
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// UserMessage renders the reply text for a failed request.
func (s *Service) UserMessage(err error) string {
	de := ToDomainError(err)
	key := "errors." + de.Code
	if de.Code == scoresheetdto.CodeInvalidRequest {
		return de.Error()
	}
	return s.catalog.RenderOr(key, nil, de.Error())
}
