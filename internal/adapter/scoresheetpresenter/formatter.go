package scoresheetpresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-scoresheet/pkg/scoresheetdto"
)

const (
	historyHeader = "Recent scoresheets"
	movesHeader   = "Moves"
	timeLayout    = "2006-01-02 15:04"
)

// Formatter renders scoresheet DTOs as plain text blocks.
type Formatter struct {
	showMessages bool
}

// NewFormatter builds a formatter. verbose adds validator messages to the
// move table.
func NewFormatter(verbose bool) *Formatter {
	return &Formatter{showMessages: verbose}
}

func (f *Formatter) Process(resp *scoresheetdto.ProcessResponse) string {
	if resp == nil || resp.Game == nil {
		return "No game was produced."
	}
	var sb strings.Builder
	if s := strings.TrimSpace(resp.Summary); s != "" {
		sb.WriteString(s)
		sb.WriteString("\n\n")
	}
	sb.WriteString(f.Moves(resp.Game.Moves))
	if m := resp.Merge; m != nil && (m.HasGap || m.HasOverlap) {
		sb.WriteString("\n")
		if m.HasGap {
			sb.WriteString(fmt.Sprintf("• gap: %d move(s)\n", m.GapSize))
		}
		if m.HasOverlap {
			sb.WriteString(fmt.Sprintf("• overlap: %d move(s)\n", m.OverlapMoves))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(resp.Game.PGN)
	return sb.String()
}

// Moves lists every ply with its status marker.
func (f *Formatter) Moves(moves []scoresheetdto.MoveView) string {
	if len(moves) == 0 {
		return movesHeader + ": none\n"
	}
	var sb strings.Builder
	sb.WriteString(movesHeader)
	sb.WriteString("\n")
	for _, mv := range moves {
		dots := "."
		if mv.Side == "black" {
			dots = "..."
		}
		played := mv.Normalized
		if played == "" {
			played = "-"
		}
		sb.WriteString(fmt.Sprintf("%s %d%s %s", statusMark(mv.Status), mv.MoveNumber, dots, played))
		if !strings.EqualFold(mv.Notation, mv.Normalized) {
			sb.WriteString(fmt.Sprintf(" (read %q)", mv.Notation))
		}
		if f.showMessages && mv.Message != "" {
			sb.WriteString(" | ")
			sb.WriteString(mv.Message)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *Formatter) History(games []*scoresheetdto.ScoresheetGame) string {
	if len(games) == 0 {
		return "No scoresheets processed yet."
	}
	var sb strings.Builder
	sb.WriteString(historyHeader)
	for _, g := range games {
		if g == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n#%d %s vs %s | %s | %d moves | %s",
			g.ID, orUnknown(g.Metadata.White), orUnknown(g.Metadata.Black), g.Result, g.Stats.TotalMoves, formatTime(g.ProcessedAt)))
		if g.Stats.ECOCode != "" {
			sb.WriteString(" | " + g.Stats.ECOCode)
		}
		if !g.IsValid {
			sb.WriteString(" | needs review")
		}
	}
	return sb.String()
}

func statusMark(status string) string {
	switch status {
	case "valid":
		return "✓"
	case "warning":
		return "!"
	case "error":
		return "✗"
	default:
		return "?"
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "?"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}
