package scoresheet

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/cheese-scoresheet/internal/domain"
)

// memrepo is the development repository used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID     map[int64]*domain.ScoresheetGame
	gamesByOwner  map[string][]*domain.ScoresheetGame
	gamesByUpload map[string]*domain.ScoresheetGame
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:     make(map[int64]*domain.ScoresheetGame),
		gamesByOwner:  make(map[string][]*domain.ScoresheetGame),
		gamesByUpload: make(map[string]*domain.ScoresheetGame),
	}
}

func (m *memrepo) InsertGame(ctx context.Context, game *domain.ScoresheetGame) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}
	key := strings.TrimSpace(game.UploadUUID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesByUpload[key]; exists {
		return 0, ErrDuplicateGame
	}
	m.nextID++
	stored := cloneGame(game)
	stored.ID = m.nextID

	m.gamesByID[stored.ID] = stored
	m.gamesByUpload[key] = stored
	m.gamesByOwner[game.OwnerHash] = append(m.gamesByOwner[game.OwnerHash], stored)
	return stored.ID, nil
}

func (m *memrepo) GetGame(ctx context.Context, id int64, ownerHash string) (*domain.ScoresheetGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gamesByID[id]
	if !ok || g.OwnerHash != ownerHash {
		return nil, nil
	}
	return cloneGame(g), nil
}

func (m *memrepo) GetGameByUpload(ctx context.Context, uploadUUID string, ownerHash string) (*domain.ScoresheetGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gamesByUpload[strings.TrimSpace(uploadUUID)]
	if !ok || g.OwnerHash != ownerHash {
		return nil, nil
	}
	return cloneGame(g), nil
}

func (m *memrepo) GetRecentGames(ctx context.Context, ownerHash string, limit int) ([]*domain.ScoresheetGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.gamesByOwner[ownerHash]
	items := make([]*domain.ScoresheetGame, 0, len(list))
	for _, g := range list {
		items = append(items, cloneGame(g))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].ProcessedAt.Equal(items[j].ProcessedAt) {
			return items[i].ProcessedAt.After(items[j].ProcessedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func cloneGame(g *domain.ScoresheetGame) *domain.ScoresheetGame {
	cp := *g
	cp.Warnings = append([]string(nil), g.Warnings...)
	return &cp
}
