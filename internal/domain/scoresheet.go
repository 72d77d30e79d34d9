package domain

import (
	"strings"
	"time"
)

type MoveStatus string

const (
	StatusValid   MoveStatus = "valid"
	StatusWarning MoveStatus = "warning"
	StatusError   MoveStatus = "error"
)

// ValidatedMove is one ply after validation. NormalizedNotation holds the
// engine-encoded SAN of the move actually applied to the board.
type ValidatedMove struct {
	Notation           string     `json:"notation"`
	NormalizedNotation string     `json:"normalized_notation"`
	Status             MoveStatus `json:"status"`
	Message            string     `json:"message,omitempty"`
}

// Text returns the notation to carry forward into PGN.
func (m *ValidatedMove) Text() string {
	if m == nil {
		return ""
	}
	if s := strings.TrimSpace(m.NormalizedNotation); s != "" {
		return s
	}
	return strings.TrimSpace(m.Notation)
}

type NumberedMove struct {
	MoveNumber int `json:"move_number"`
	ValidatedMove
}

type ValidationResult struct {
	IsValid bool           `json:"is_valid"`
	Moves   []NumberedMove `json:"moves"`
}

// HasErrors recomputes validity from the move statuses.
func (r *ValidationResult) HasErrors() bool {
	if r == nil {
		return false
	}
	for _, mv := range r.Moves {
		if mv.Status == StatusError {
			return true
		}
	}
	return false
}

// MovePair is one numbered scoresheet row. At least one side is set.
type MovePair struct {
	MoveNumber int            `json:"move_number"`
	WhiteMove  *ValidatedMove `json:"white_move,omitempty"`
	BlackMove  *ValidatedMove `json:"black_move,omitempty"`
}

func (p MovePair) IsEmpty() bool {
	return p.WhiteMove.Text() == "" && p.BlackMove.Text() == ""
}

type PageRange struct {
	StartMoveNumber int `json:"start_move_number"`
	EndMoveNumber   int `json:"end_move_number"`
}

func (r PageRange) IsEmpty() bool {
	return r.StartMoveNumber == 0 && r.EndMoveNumber == 0
}

type MergeResult struct {
	MergedMoves  []MovePair `json:"merged_moves"`
	Warnings     []string   `json:"warnings"`
	HasGap       bool       `json:"has_gap"`
	GapSize      *int       `json:"gap_size,omitempty"`
	HasOverlap   bool       `json:"has_overlap"`
	OverlapMoves *int       `json:"overlap_moves,omitempty"`
	IsValid      bool       `json:"is_valid"`
}

type GameMetadata struct {
	White string `json:"white"`
	Black string `json:"black"`
	Date  string `json:"date"`
	Round string `json:"round,omitempty"`
}

type ParsedGame struct {
	Metadata GameMetadata
	Tags     map[string]string
	Moves    []MovePair
	Result   string
}

type GameStats struct {
	TotalMoves  int    `json:"total_moves"`
	Valid       int    `json:"valid"`
	Warnings    int    `json:"warnings"`
	Errors      int    `json:"errors"`
	Repaired    int    `json:"repaired"`
	ECOCode     string `json:"eco_code,omitempty"`
	ECOTitle    string `json:"eco_title,omitempty"`
	FinalFEN    string `json:"final_fen,omitempty"`
	MergeIssues int    `json:"merge_issues"`
}

// ScoresheetGame is the persisted record of one processed scoresheet.
type ScoresheetGame struct {
	ID          int64
	UploadUUID  string
	OwnerHash   string
	Pages       int
	PGN         string
	Result      string
	Metadata    GameMetadata
	Stats       GameStats
	Warnings    []string
	IsValid     bool
	ProcessedAt time.Time
}
