package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/cheese-scoresheet/internal/chess"
	"github.com/park285/cheese-scoresheet/internal/domain"
	"github.com/park285/cheese-scoresheet/internal/notation"
)

const (
	MsgNoMoves          = "No moves provided"
	MsgInvalidPromotion = "Invalid promotion piece"
	MsgNoLegalMoves     = "No legal moves available"
	MsgConsecutiveCheck = "Consecutive checks detected"
	msgSuggestion       = "replaced with engine suggestion: %s"
	msgAmbiguous        = "Ambiguous move '%s'; " + msgSuggestion
	msgInvalidSyntax    = "Invalid move syntax '%s'"
)

// Validator replays scoresheet moves against a board and repairs what it
// can. It holds no position between calls.
type Validator struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger}
}

// ValidateMoves validates White's scoresheet column.
func ValidateMoves(tokens []string) *domain.ValidationResult {
	return New(nil).ValidateMoves(tokens)
}

// ValidateMovesInGameContext re-checks two validated columns as one game.
func ValidateMovesInGameContext(white, black *domain.ValidationResult) {
	New(nil).ValidateMovesInGameContext(white, black)
}

func (v *Validator) ValidateMoves(tokens []string) *domain.ValidationResult {
	return v.ValidateColumn(tokens, nchess.White)
}

// ValidateColumn validates one player's column. Every token is played by
// side; the turn is handed back after each applied ply.
func (v *Validator) ValidateColumn(tokens []string, side nchess.Color) *domain.ValidationResult {
	if len(tokens) == 0 {
		return emptyResult()
	}
	board, err := chess.NewBoardForSide(side)
	if err != nil {
		v.logger.Warn("column board init failed", zap.Error(err))
		board = chess.NewBoard()
	}

	result := &domain.ValidationResult{Moves: make([]domain.NumberedMove, 0, len(tokens))}
	for i, raw := range tokens {
		mv := domain.NumberedMove{MoveNumber: i + 1}
		if v.step(board, raw, mv.MoveNumber, &mv.ValidatedMove) {
			if err := board.PassTurn(); err != nil {
				v.logger.Warn("pass turn failed", zap.Int("move_number", mv.MoveNumber), zap.Error(err))
			}
		}
		result.Moves = append(result.Moves, mv)
		if i > 0 {
			flagConsecutiveChecks(&result.Moves[i-1].ValidatedMove, &result.Moves[i].ValidatedMove)
		}
	}
	result.IsValid = !result.HasErrors()
	return result
}

// ValidateMovesInGameContext walks both columns together on one board: white
// ply then black ply per move number. Statuses, messages and normalized
// notation are rewritten in place from the original tokens.
func (v *Validator) ValidateMovesInGameContext(white, black *domain.ValidationResult) {
	type ply struct {
		side nchess.Color
		mv   *domain.NumberedMove
	}

	byNumber := map[int][2]*domain.NumberedMove{}
	collect := func(r *domain.ValidationResult, slot int) {
		if r == nil {
			return
		}
		for i := range r.Moves {
			mv := &r.Moves[i]
			if mv.MoveNumber <= 0 {
				continue
			}
			pair := byNumber[mv.MoveNumber]
			if pair[slot] == nil {
				pair[slot] = mv
				byNumber[mv.MoveNumber] = pair
			}
		}
	}
	collect(white, 0)
	collect(black, 1)

	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	plies := make([]ply, 0, len(numbers)*2)
	for _, n := range numbers {
		pair := byNumber[n]
		if pair[0] != nil {
			plies = append(plies, ply{side: nchess.White, mv: pair[0]})
		}
		if pair[1] != nil {
			plies = append(plies, ply{side: nchess.Black, mv: pair[1]})
		}
	}

	board := chess.NewBoard()
	var prev *domain.ValidatedMove
	for _, p := range plies {
		if board.Side() != p.side {
			if err := board.PassTurn(); err != nil {
				v.logger.Warn("pass turn failed", zap.Int("move_number", p.mv.MoveNumber), zap.Error(err))
			}
		}
		reset := domain.ValidatedMove{Notation: p.mv.Notation}
		v.step(board, p.mv.Notation, p.mv.MoveNumber, &reset)
		p.mv.ValidatedMove = reset
		if prev != nil {
			flagConsecutiveChecks(prev, &p.mv.ValidatedMove)
		}
		prev = &p.mv.ValidatedMove
	}

	for _, r := range []*domain.ValidationResult{white, black} {
		if r != nil {
			r.IsValid = !r.HasErrors()
		}
	}
}

// step validates one ply on board and reports whether a move was applied.
func (v *Validator) step(board *chess.Board, raw string, moveNumber int, out *domain.ValidatedMove) bool {
	norm := notation.Normalize(raw)
	out.Notation = strings.TrimSpace(raw)
	out.NormalizedNotation = norm

	tok, err := notation.Parse(norm)
	if err != nil {
		out.Status = domain.StatusError
		if errors.Is(err, notation.ErrPromotion) {
			out.Message = MsgInvalidPromotion
		} else {
			out.Message = fmt.Sprintf(msgInvalidSyntax, out.Notation)
		}
		return false
	}

	matches := chess.Match(board, tok)
	switch {
	case len(matches) == 1:
		out.Status = domain.StatusValid
		out.Message = ""
		out.NormalizedNotation = matches[0].SAN
		return v.apply(board, matches[0], moveNumber, out)
	case len(matches) > 1:
		out.Status = domain.StatusWarning
		out.Message = fmt.Sprintf(msgAmbiguous, norm, matches[0].SAN)
		out.NormalizedNotation = matches[0].SAN
		v.logger.Debug("ambiguous move resolved",
			zap.Int("move_number", moveNumber),
			zap.String("token", norm),
			zap.String("substitute", matches[0].SAN),
			zap.Int("matches", len(matches)),
		)
		return v.apply(board, matches[0], moveNumber, out)
	}

	candidates := chess.GenerateLegalMoves(board.Clone())
	if len(candidates) == 0 {
		out.Status = domain.StatusError
		out.Message = MsgNoLegalMoves
		return false
	}
	substitute := candidates[0]
	out.Status = domain.StatusWarning
	out.Message = fmt.Sprintf(msgSuggestion, substitute.SAN)
	out.NormalizedNotation = substitute.SAN
	v.logger.Debug("illegal move repaired",
		zap.Int("move_number", moveNumber),
		zap.String("token", norm),
		zap.String("substitute", substitute.SAN),
		zap.String("fen", board.FEN()),
	)
	return v.apply(board, substitute, moveNumber, out)
}

func (v *Validator) apply(board *chess.Board, c chess.Candidate, moveNumber int, out *domain.ValidatedMove) bool {
	if err := board.Apply(c); err != nil {
		v.logger.Warn("apply move failed", zap.Int("move_number", moveNumber), zap.String("uci", c.UCI), zap.Error(err))
		out.Status = domain.StatusError
		out.Message = MsgNoLegalMoves
		return false
	}
	return true
}

func flagConsecutiveChecks(prev, cur *domain.ValidatedMove) {
	if !notation.IsCheck(prev.Notation) || !notation.IsCheck(cur.Notation) {
		return
	}
	markWarning(prev, MsgConsecutiveCheck)
	markWarning(cur, MsgConsecutiveCheck)
}

func markWarning(mv *domain.ValidatedMove, msg string) {
	if mv.Status == domain.StatusError {
		return
	}
	mv.Status = domain.StatusWarning
	if strings.Contains(mv.Message, msg) {
		return
	}
	if mv.Message == "" {
		mv.Message = msg
		return
	}
	mv.Message = mv.Message + "; " + msg
}

func emptyResult() *domain.ValidationResult {
	return &domain.ValidationResult{
		IsValid: false,
		Moves: []domain.NumberedMove{{
			MoveNumber: 0,
			ValidatedMove: domain.ValidatedMove{
				Status:  domain.StatusError,
				Message: MsgNoMoves,
			},
		}},
	}
}

// Pairs joins two validated columns into numbered rows. Plies still in error
// are left out; rows with neither side are dropped.
func Pairs(white, black *domain.ValidationResult) []domain.MovePair {
	rows := map[int]*domain.MovePair{}
	add := func(r *domain.ValidationResult, isWhite bool) {
		if r == nil {
			return
		}
		for i := range r.Moves {
			mv := r.Moves[i]
			if mv.MoveNumber <= 0 || mv.Status == domain.StatusError || mv.Text() == "" {
				continue
			}
			row, ok := rows[mv.MoveNumber]
			if !ok {
				row = &domain.MovePair{MoveNumber: mv.MoveNumber}
				rows[mv.MoveNumber] = row
			}
			vm := mv.ValidatedMove
			if isWhite && row.WhiteMove == nil {
				row.WhiteMove = &vm
			} else if !isWhite && row.BlackMove == nil {
				row.BlackMove = &vm
			}
		}
	}
	add(white, true)
	add(black, false)

	out := make([]domain.MovePair, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MoveNumber < out[j].MoveNumber })
	return out
}
