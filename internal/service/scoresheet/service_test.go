package scoresheet

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-scoresheet/internal/msgcat"
	"github.com/park285/cheese-scoresheet/internal/preview"
	"github.com/park285/cheese-scoresheet/pkg/scoresheetdto"
)

// fakeExtractor answers by the image bytes.
type fakeExtractor struct {
	mu     sync.Mutex
	pages  map[string]scoresheetdto.RawMoveTokens
	err    error
	block  bool
	called int
}

func (f *fakeExtractor) Extract(ctx context.Context, page scoresheetdto.PageImage) (scoresheetdto.RawMoveTokens, error) {
	f.mu.Lock()
	f.called++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return scoresheetdto.RawMoveTokens{}, ctx.Err()
	}
	if f.err != nil {
		return scoresheetdto.RawMoveTokens{}, f.err
	}
	return f.pages[string(page.Data)], nil
}

func img(name string) scoresheetdto.PageImage {
	return scoresheetdto.PageImage{Data: []byte(name), ContentType: "image/png"}
}

func newTestService(t *testing.T, ex Extractor, previewOn bool) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	var r preview.Renderer
	if previewOn {
		r = preview.NewRenderer()
	}
	svc, err := NewService(ex, NewMemoryRepository(), NewRedisPageStore(rdb), r, cat, Config{PreviewEnabled: previewOn}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, mr
}

func italianPages() map[string]scoresheetdto.RawMoveTokens {
	page2 := scoresheetdto.WellFormedTokens([]string{"Bc4", "c3"}, []string{"Bc5"}, "")
	page2.StartMoveNumber = 3
	return map[string]scoresheetdto.RawMoveTokens{
		"p1": scoresheetdto.WellFormedTokens([]string{"e4", "Nf3"}, []string{"e5", "Nc6"}, ""),
		"p2": page2,
	}
}

func TestProcessUploadStoresGameAndPendingPage(t *testing.T) {
	ex := &fakeExtractor{pages: italianPages()}
	svc, _ := newTestService(t, ex, true)
	ctx := context.Background()

	resp, err := svc.ProcessUpload(ctx, scoresheetdto.UploadRequest{
		Meta:     scoresheetdto.RequestMeta{RequestID: "up-1", Owner: "Alice"},
		Page:     img("p1"),
		Metadata: scoresheetdto.GameMetadata{White: "Alice", Black: "Bob", Date: "2024.05.01"},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	g := resp.Game
	if g.ID == 0 || g.UploadUUID != "up-1" || g.Pages != 1 {
		t.Fatalf("unexpected game: %+v", g)
	}
	if !strings.Contains(g.PGN, "1. e4 e5 2. Nf3 Nc6 *") {
		t.Fatalf("pgn = %q", g.PGN)
	}
	if !strings.Contains(g.PGN, `[White "Alice"]`) {
		t.Fatalf("missing white tag: %q", g.PGN)
	}
	if g.Stats.TotalMoves != 4 || g.Stats.Valid != 4 || g.Stats.Errors != 0 {
		t.Fatalf("stats = %+v", g.Stats)
	}
	if g.Stats.FinalFEN == "" {
		t.Fatalf("expected final fen")
	}
	if !g.IsValid {
		t.Fatalf("expected valid game")
	}
	if len(g.Moves) != 4 || g.Moves[0].Side != "white" || g.Moves[1].Side != "black" || g.Moves[3].MoveNumber != 2 {
		t.Fatalf("moves = %+v", g.Moves)
	}
	if !bytes.HasPrefix(resp.Preview, []byte("\x89PNG")) {
		t.Fatalf("expected png preview")
	}
	if !strings.Contains(resp.Summary, "up-1") {
		t.Fatalf("summary should carry continuation id: %q", resp.Summary)
	}

	ids, err := svc.PendingUploads(ctx, scoresheetdto.RequestMeta{Owner: " alice "})
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(ids) != 1 || ids[0] != "up-1" {
		t.Fatalf("pending ids = %v", ids)
	}
}

func TestProcessContinuationMergesPages(t *testing.T) {
	ex := &fakeExtractor{pages: italianPages()}
	svc, _ := newTestService(t, ex, false)
	ctx := context.Background()
	meta := scoresheetdto.RequestMeta{RequestID: "up-2", Owner: "alice"}

	if _, err := svc.ProcessUpload(ctx, scoresheetdto.UploadRequest{Meta: meta, Page: img("p1")}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	resp, err := svc.ProcessContinuation(ctx, scoresheetdto.ContinuationRequest{
		Meta:       scoresheetdto.RequestMeta{Owner: "alice"},
		UploadUUID: "up-2",
		Page:       img("p2"),
		Result:     "1-0",
	})
	if err != nil {
		t.Fatalf("continuation: %v", err)
	}
	g := resp.Game
	if !strings.Contains(g.PGN, "1. e4 e5 2. Nf3 Nc6 3. Bc4 Bc5 4. c3 1-0") {
		t.Fatalf("pgn = %q", g.PGN)
	}
	if g.Pages != 2 || g.UploadUUID != "up-2:2" || g.Result != "1-0" {
		t.Fatalf("unexpected game: %+v", g)
	}
	if resp.Merge == nil || !resp.Merge.IsValid || len(resp.Merge.Warnings) != 0 {
		t.Fatalf("merge = %+v", resp.Merge)
	}
	if resp.Preview != nil {
		t.Fatalf("preview disabled but rendered")
	}

	ids, _ := svc.PendingUploads(ctx, meta)
	if len(ids) != 0 {
		t.Fatalf("pending page should be gone: %v", ids)
	}
	if _, err := svc.ProcessContinuation(ctx, scoresheetdto.ContinuationRequest{Meta: meta, UploadUUID: "up-2", Page: img("p2")}); !errors.Is(err, ErrUploadNotFound) {
		t.Fatalf("second continuation err = %v", err)
	}
}

func TestProcessContinuationRejectsOtherOwner(t *testing.T) {
	ex := &fakeExtractor{pages: italianPages()}
	svc, _ := newTestService(t, ex, false)
	ctx := context.Background()

	if _, err := svc.ProcessUpload(ctx, scoresheetdto.UploadRequest{
		Meta: scoresheetdto.RequestMeta{RequestID: "up-3", Owner: "alice"},
		Page: img("p1"),
	}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	_, err := svc.ProcessContinuation(ctx, scoresheetdto.ContinuationRequest{
		Meta:       scoresheetdto.RequestMeta{Owner: "mallory"},
		UploadUUID: "up-3",
		Page:       img("p2"),
	})
	if !errors.Is(err, ErrUploadNotFound) {
		t.Fatalf("err = %v", err)
	}
	if got := ToDomainError(err).Code; got != scoresheetdto.CodeUploadNotFound {
		t.Fatalf("code = %s", got)
	}
	if _, err := svc.ProcessContinuation(ctx, scoresheetdto.ContinuationRequest{Page: img("p2")}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("blank id err = %v", err)
	}
}

func TestProcessDualUploadReportsOverlap(t *testing.T) {
	page2 := scoresheetdto.WellFormedTokens([]string{"Nf3", "Bc4"}, []string{"Nc6"}, "")
	page2.StartMoveNumber = 2
	ex := &fakeExtractor{pages: map[string]scoresheetdto.RawMoveTokens{
		"a": scoresheetdto.WellFormedTokens([]string{"e4", "Nf3"}, []string{"e5", "Nc6"}, ""),
		"b": page2,
	}}
	svc, _ := newTestService(t, ex, false)

	resp, err := svc.ProcessDualUpload(context.Background(), scoresheetdto.DualUploadRequest{
		Meta:  scoresheetdto.RequestMeta{Owner: "alice"},
		Page1: img("a"),
		Page2: img("b"),
	})
	if err != nil {
		t.Fatalf("dual: %v", err)
	}
	if resp.Merge == nil || !resp.Merge.HasOverlap || resp.Merge.OverlapMoves != 1 {
		t.Fatalf("merge = %+v", resp.Merge)
	}
	if !strings.Contains(resp.Game.PGN, "1. e4 e5 2. Nf3 Nc6 3. Bc4 *") {
		t.Fatalf("pgn = %q", resp.Game.PGN)
	}
	if resp.Game.IsValid {
		t.Fatalf("overlap warning should mark the game invalid")
	}
	if resp.Game.Stats.MergeIssues != 1 {
		t.Fatalf("merge issues = %d", resp.Game.Stats.MergeIssues)
	}
	if ex.called != 2 {
		t.Fatalf("extractor called %d times", ex.called)
	}
}

func TestProcessDualUploadHonoursCancellation(t *testing.T) {
	ex := &fakeExtractor{block: true}
	svc, _ := newTestService(t, ex, false)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.ProcessDualUpload(ctx, scoresheetdto.DualUploadRequest{Page1: img("a"), Page2: img("b")})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestProcessUploadExtractionFailure(t *testing.T) {
	ex := &fakeExtractor{err: errors.New("ocr down")}
	svc, _ := newTestService(t, ex, false)

	_, err := svc.ProcessUpload(context.Background(), scoresheetdto.UploadRequest{Page: img("x")})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v", err)
	}
	de := ToDomainError(err)
	if de.Code != scoresheetdto.CodeExtractionFailed || !de.Retryable {
		t.Fatalf("domain error = %+v", de)
	}
	if msg := svc.UserMessage(err); !strings.Contains(msg, "could not be read") {
		t.Fatalf("message = %q", msg)
	}
}

func TestProcessUploadMalformedPage(t *testing.T) {
	ex := &fakeExtractor{pages: map[string]scoresheetdto.RawMoveTokens{
		"text":    scoresheetdto.MalformedTokens("1. e4 {good} e5 2. Nf3", "columns misaligned"),
		"garbage": scoresheetdto.MalformedTokens("smudged ink", "unreadable"),
	}}
	svc, _ := newTestService(t, ex, false)
	ctx := context.Background()

	resp, err := svc.ProcessUpload(ctx, scoresheetdto.UploadRequest{Page: img("text")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.Contains(resp.Game.PGN, "1. e4 e5 2. Nf3 *") {
		t.Fatalf("pgn = %q", resp.Game.PGN)
	}

	_, err = svc.ProcessUpload(ctx, scoresheetdto.UploadRequest{Page: img("garbage")})
	if !errors.Is(err, ErrNoMoveData) {
		t.Fatalf("err = %v", err)
	}
	if got := ToDomainError(err).Code; got != scoresheetdto.CodeNoMoveData {
		t.Fatalf("code = %s", got)
	}
}

func TestProcessUploadRepairsIllegalMove(t *testing.T) {
	ex := &fakeExtractor{pages: map[string]scoresheetdto.RawMoveTokens{
		"p": scoresheetdto.WellFormedTokens([]string{"e4", "Nf3"}, []string{"e5", "e4"}, ""),
	}}
	svc, _ := newTestService(t, ex, true)

	resp, err := svc.ProcessUpload(context.Background(), scoresheetdto.UploadRequest{Page: img("p")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	st := resp.Game.Stats
	if st.TotalMoves != 4 || st.Repaired != 1 || st.Warnings != 1 {
		t.Fatalf("stats = %+v", st)
	}
	var repaired bool
	for _, mv := range resp.Game.Moves {
		if mv.Side == "black" && mv.Notation == "e4" && mv.Status == "warning" && mv.Normalized != "e4" {
			repaired = true
		}
	}
	if !repaired {
		t.Fatalf("blocked e4 should be repaired: %+v", resp.Game.Moves)
	}
}

func TestProcessUploadDuplicateRequestReturnsStoredGame(t *testing.T) {
	ex := &fakeExtractor{pages: italianPages()}
	svc, _ := newTestService(t, ex, false)
	ctx := context.Background()
	req := scoresheetdto.UploadRequest{Meta: scoresheetdto.RequestMeta{RequestID: "dup", Owner: "alice"}, Page: img("p1")}

	first, err := svc.ProcessUpload(ctx, req)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.ProcessUpload(ctx, req)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Game.ID != second.Game.ID {
		t.Fatalf("ids differ: %d vs %d", first.Game.ID, second.Game.ID)
	}
}

func TestHistoryAndGame(t *testing.T) {
	ex := &fakeExtractor{pages: italianPages()}
	svc, _ := newTestService(t, ex, false)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	var last int64
	for _, id := range []string{"h1", "h2", "h3"} {
		resp, err := svc.ProcessUpload(ctx, scoresheetdto.UploadRequest{
			Meta: scoresheetdto.RequestMeta{RequestID: id, Owner: "alice"},
			Page: img("p1"),
		})
		if err != nil {
			t.Fatalf("upload %s: %v", id, err)
		}
		last = resp.Game.ID
	}

	hist, err := svc.History(ctx, scoresheetdto.HistoryRequest{Meta: scoresheetdto.RequestMeta{Owner: "alice"}, Limit: 2})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist.Games) != 2 || hist.Games[0].UploadUUID != "h3" || hist.Games[1].UploadUUID != "h2" {
		t.Fatalf("history = %+v", hist.Games)
	}

	got, err := svc.Game(ctx, scoresheetdto.GameRequest{Meta: scoresheetdto.RequestMeta{Owner: "alice"}, GameID: last})
	if err != nil || got.Game.UploadUUID != "h3" {
		t.Fatalf("game = %+v, err = %v", got, err)
	}
	if _, err := svc.Game(ctx, scoresheetdto.GameRequest{Meta: scoresheetdto.RequestMeta{Owner: "bob"}, GameID: last}); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("foreign game err = %v", err)
	}
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	if _, err := NewService(nil, NewMemoryRepository(), NewMemoryPageStore(), nil, nil, Config{}, nil); err == nil {
		t.Fatalf("expected error for nil extractor")
	}
	if _, err := NewService(&fakeExtractor{}, nil, NewMemoryPageStore(), nil, nil, Config{}, nil); err == nil {
		t.Fatalf("expected error for nil repository")
	}
}
