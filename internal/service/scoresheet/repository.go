package scoresheet

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/park285/cheese-scoresheet/internal/domain"
)

var ErrDuplicateGame = errors.New("scoresheet game already exists")

type Repository interface {
	InsertGame(ctx context.Context, game *domain.ScoresheetGame) (int64, error)
	GetGame(ctx context.Context, id int64, ownerHash string) (*domain.ScoresheetGame, error)
	GetGameByUpload(ctx context.Context, uploadUUID string, ownerHash string) (*domain.ScoresheetGame, error)
	GetRecentGames(ctx context.Context, ownerHash string, limit int) ([]*domain.ScoresheetGame, error)
}

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the scoresheet tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure scoresheet schema: %w", err)
	}
	return nil
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const gameColumns = `
			id,
			upload_uuid,
			owner_hash,
			pages,
			pgn,
			result,
			white_name,
			black_name,
			game_date,
			round,
			stats,
			warnings,
			is_valid,
			processed_at`

func (r *repository) InsertGame(ctx context.Context, game *domain.ScoresheetGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil scoresheet game payload")
	}
	stats, err := json.Marshal(game.Stats)
	if err != nil {
		return 0, fmt.Errorf("marshal stats: %w", err)
	}
	warnings := game.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return 0, fmt.Errorf("marshal warnings: %w", err)
	}

	const query = `
		INSERT INTO scoresheet_games (
			upload_uuid,
			owner_hash,
			pages,
			pgn,
			result,
			white_name,
			black_name,
			game_date,
			round,
			stats,
			warnings,
			is_valid,
			processed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11::jsonb, $12, $13)
		ON CONFLICT (upload_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		game.UploadUUID,
		game.OwnerHash,
		game.Pages,
		game.PGN,
		game.Result,
		game.Metadata.White,
		game.Metadata.Black,
		game.Metadata.Date,
		game.Metadata.Round,
		stats,
		warningsJSON,
		game.IsValid,
		game.ProcessedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert scoresheet game: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) GetGame(ctx context.Context, id int64, ownerHash string) (*domain.ScoresheetGame, error) {
	query := `SELECT` + gameColumns + `
		FROM scoresheet_games
		WHERE id = $1 AND owner_hash = $2`
	game, err := scanGame(r.db.QueryRowContext(ctx, query, id, ownerHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select scoresheet game: %w", err)
	}
	return game, nil
}

func (r *repository) GetGameByUpload(ctx context.Context, uploadUUID string, ownerHash string) (*domain.ScoresheetGame, error) {
	query := `SELECT` + gameColumns + `
		FROM scoresheet_games
		WHERE upload_uuid = $1 AND owner_hash = $2
		LIMIT 1`
	game, err := scanGame(r.db.QueryRowContext(ctx, query, uploadUUID, ownerHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select scoresheet game by upload: %w", err)
	}
	return game, nil
}

func (r *repository) GetRecentGames(ctx context.Context, ownerHash string, limit int) ([]*domain.ScoresheetGame, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT` + gameColumns + `
		FROM scoresheet_games
		WHERE owner_hash = $1
		ORDER BY processed_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, ownerHash, limit)
	if err != nil {
		return nil, fmt.Errorf("select scoresheet games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.ScoresheetGame, 0, limit)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scoresheet game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scoresheet games: %w", err)
	}
	return games, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.ScoresheetGame, error) {
	var (
		game         domain.ScoresheetGame
		statsJSON    []byte
		warningsJSON []byte
		round        sql.NullString
	)
	if err := row.Scan(
		&game.ID,
		&game.UploadUUID,
		&game.OwnerHash,
		&game.Pages,
		&game.PGN,
		&game.Result,
		&game.Metadata.White,
		&game.Metadata.Black,
		&game.Metadata.Date,
		&round,
		&statsJSON,
		&warningsJSON,
		&game.IsValid,
		&game.ProcessedAt,
	); err != nil {
		return nil, err
	}
	game.Metadata.Round = round.String
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &game.Stats); err != nil {
			return nil, fmt.Errorf("unmarshal stats: %w", err)
		}
	}
	if len(warningsJSON) > 0 {
		if err := json.Unmarshal(warningsJSON, &game.Warnings); err != nil {
			return nil, fmt.Errorf("unmarshal warnings: %w", err)
		}
	}
	return &game, nil
}
