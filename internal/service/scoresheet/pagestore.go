package scoresheet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-scoresheet/internal/domain"
)

// PendingPage is a processed first page waiting for its continuation.
type PendingPage struct {
	UploadUUID string              `json:"upload_uuid"`
	OwnerHash  string              `json:"owner_hash"`
	GameID     int64               `json:"game_id"`
	PGN        string              `json:"pgn"`
	RawText    string              `json:"raw_text,omitempty"`
	Metadata   domain.GameMetadata `json:"metadata"`
	CreatedAt  time.Time           `json:"created_at"`
}

type PageStore interface {
	SavePending(ctx context.Context, page *PendingPage, ttl time.Duration) error
	// LoadPending returns nil without error when nothing is stored.
	LoadPending(ctx context.Context, uploadUUID string) (*PendingPage, error)
	DeletePending(ctx context.Context, uploadUUID string) error
	PendingByOwner(ctx context.Context, ownerHash string) ([]string, error)
}

type redisPageStore struct{ rdb *redis.Client }

func NewRedisPageStore(rdb *redis.Client) PageStore { return &redisPageStore{rdb: rdb} }

func (s *redisPageStore) keyPage(uploadUUID string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(uploadUUID)))
	return "scoresheet:pending:" + hex.EncodeToString(sum[:])
}

func (s *redisPageStore) keyOwner(ownerHash string) string {
	return "scoresheet:pending:owner:" + strings.TrimSpace(ownerHash)
}

func (s *redisPageStore) SavePending(ctx context.Context, page *PendingPage, ttl time.Duration) error {
	if page == nil || strings.TrimSpace(page.UploadUUID) == "" {
		return errors.New("pending page requires an upload uuid")
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal pending page: %w", err)
	}
	if err := s.rdb.Set(ctx, s.keyPage(page.UploadUUID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save pending page: %w", err)
	}
	if page.OwnerHash == "" {
		return nil
	}
	if err := s.rdb.SAdd(ctx, s.keyOwner(page.OwnerHash), page.UploadUUID).Err(); err != nil {
		return fmt.Errorf("index pending page: %w", err)
	}
	return s.rdb.Expire(ctx, s.keyOwner(page.OwnerHash), ttl).Err()
}

func (s *redisPageStore) LoadPending(ctx context.Context, uploadUUID string) (*PendingPage, error) {
	raw, err := s.rdb.Get(ctx, s.keyPage(uploadUUID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pending page: %w", err)
	}
	var page PendingPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode pending page: %w", err)
	}
	return &page, nil
}

func (s *redisPageStore) DeletePending(ctx context.Context, uploadUUID string) error {
	page, err := s.LoadPending(ctx, uploadUUID)
	if err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, s.keyPage(uploadUUID)).Err(); err != nil {
		return fmt.Errorf("delete pending page: %w", err)
	}
	if page != nil && page.OwnerHash != "" {
		_ = s.rdb.SRem(ctx, s.keyOwner(page.OwnerHash), uploadUUID).Err()
	}
	return nil
}

func (s *redisPageStore) PendingByOwner(ctx context.Context, ownerHash string) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, s.keyOwner(ownerHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending pages: %w", err)
	}
	// drop ids whose page already expired
	out := ids[:0]
	for _, id := range ids {
		n, err := s.rdb.Exists(ctx, s.keyPage(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("check pending page: %w", err)
		}
		if n > 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memPageStore struct {
	mu    sync.Mutex
	now   func() time.Time
	pages map[string]memEntry
}

type memEntry struct {
	page    PendingPage
	expires time.Time
}

// NewMemoryPageStore keeps pending pages in process, for runs without Redis.
func NewMemoryPageStore() PageStore {
	return &memPageStore{now: time.Now, pages: make(map[string]memEntry)}
}

func (m *memPageStore) SavePending(ctx context.Context, page *PendingPage, ttl time.Duration) error {
	if page == nil || strings.TrimSpace(page.UploadUUID) == "" {
		return errors.New("pending page requires an upload uuid")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page.UploadUUID] = memEntry{page: *page, expires: m.now().Add(ttl)}
	return nil
}

func (m *memPageStore) LoadPending(ctx context.Context, uploadUUID string) (*PendingPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.pages[uploadUUID]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.pages, uploadUUID)
		return nil, nil
	}
	page := e.page
	return &page, nil
}

func (m *memPageStore) DeletePending(ctx context.Context, uploadUUID string) error {
	m.mu.Lock()
	delete(m.pages, uploadUUID)
	m.mu.Unlock()
	return nil
}

func (m *memPageStore) PendingByOwner(ctx context.Context, ownerHash string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	now := m.now()
	for id, e := range m.pages {
		if e.page.OwnerHash == ownerHash && now.Before(e.expires) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}
