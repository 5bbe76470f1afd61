package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/careersfromhere/testimonial-service/internal/events"
	"github.com/careersfromhere/testimonial-service/internal/mail"
	"github.com/careersfromhere/testimonial-service/internal/media"
	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubRepo backs the worker tests with just clips and videos
type stubRepo struct {
	mu     sync.Mutex
	clips  map[uint]*models.VideoClip
	videos map[uint]*models.Video
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		clips:  make(map[uint]*models.VideoClip),
		videos: make(map[uint]*models.Video),
	}
}

func (s *stubRepo) clip(id uint) *models.VideoClip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clips[id]
}

func (s *stubRepo) School() repositories.SchoolRepository     { return nil }
func (s *stubRepo) User() repositories.UserRepository         { return nil }
func (s *stubRepo) Question() repositories.QuestionRepository { return nil }
func (s *stubRepo) Category() repositories.CategoryRepository { return nil }
func (s *stubRepo) Video() repositories.VideoRepository       { return &stubVideoRepo{s} }

func (s *stubRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(s)
}

func (s *stubRepo) Ping(ctx context.Context) error { return nil }
func (s *stubRepo) Close() error                   { return nil }

type stubVideoRepo struct{ s *stubRepo }

func (r *stubVideoRepo) Create(ctx context.Context, tx *gorm.DB, video *models.Video) error {
	return nil
}

func (r *stubVideoRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Video, error) {
	return r.GetByIDWithDetails(ctx, tx, id)
}

func (r *stubVideoRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if v, ok := r.s.videos[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubVideoRepo) Update(ctx context.Context, tx *gorm.DB, video *models.Video) error {
	return nil
}

func (r *stubVideoRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error { return nil }

func (r *stubVideoRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.VideoFilters) ([]*models.Video, int64, error) {
	return nil, 0, nil
}

func (r *stubVideoRepo) GetBySchool(ctx context.Context, tx *gorm.DB, schoolID uint, filters repositories.VideoFilters) ([]*models.Video, int64, error) {
	return nil, 0, nil
}

func (r *stubVideoRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Video, error) {
	return nil, nil
}

func (r *stubVideoRepo) GetUnapproved(ctx context.Context, tx *gorm.DB, schoolID *uint) ([]*models.Video, error) {
	return nil, nil
}

func (r *stubVideoRepo) ReplaceCategories(ctx context.Context, tx *gorm.DB, videoID uint, categoryIDs []uint) error {
	return nil
}

func (r *stubVideoRepo) CreateClip(ctx context.Context, tx *gorm.DB, clip *models.VideoClip) error {
	return nil
}

func (r *stubVideoRepo) GetClipByID(ctx context.Context, tx *gorm.DB, id uint) (*models.VideoClip, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.clips[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubVideoRepo) GetClipsByVideo(ctx context.Context, tx *gorm.DB, videoID uint) ([]*models.VideoClip, error) {
	return nil, nil
}

func (r *stubVideoRepo) UpdateClip(ctx context.Context, tx *gorm.DB, clip *models.VideoClip) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clips[clip.ID] = clip
	return nil
}

func newWorkerFixture(repo *stubRepo) (*EnrichmentWorker, *media.MockMerger, *media.MockPublisher, *events.MockEventPublisher, *mail.MockService) {
	merger := media.NewMockMerger()
	publisher := media.NewMockPublisher()
	eventPublisher := events.NewMockEventPublisher(testLogger())
	mailer := mail.NewMockService()
	w := NewEnrichmentWorker(repo, nil, merger, publisher, eventPublisher, mailer, testLogger())
	return w, merger, publisher, eventPublisher, mailer
}

func TestProcessVideoEnrichesClips(t *testing.T) {
	repo := newStubRepo()
	repo.videos[1] = &models.Video{ID: 1, User: models.User{Email: "owner@example.com", Name: "Owner"}}
	repo.clips[10] = &models.VideoClip{ID: 10, VideoID: 1, VideoPath: "/uploads/a.webm", AudioPath: "/uploads/a.wav"}
	repo.clips[11] = &models.VideoClip{ID: 11, VideoID: 1, VideoPath: "/uploads/b.webm", AudioPath: "/uploads/b.wav"}

	w, merger, publisher, eventPublisher, mailer := newWorkerFixture(repo)

	w.ProcessVideo(context.Background(), &events.VideoApprovedEvent{VideoID: 1, ClipIDs: []uint{10, 11}})

	for _, id := range []uint{10, 11} {
		clip := repo.clip(id)
		if clip.OutputPath == "" {
			t.Errorf("clip %d has no output path", id)
		}
		if clip.YouTubeID == "" {
			t.Errorf("clip %d has no published id", id)
		}
	}
	if len(merger.Calls) != 2 || len(publisher.Calls) != 2 {
		t.Errorf("merge/publish calls = %d/%d, want 2/2", len(merger.Calls), len(publisher.Calls))
	}

	published := eventPublisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventTypeVideoEnriched {
		t.Fatalf("published events = %v, want one video.enriched", published)
	}
	result := published[0].Data.(*events.VideoEnrichedEvent)
	if len(result.EnrichedClips) != 2 || len(result.SkippedClips) != 0 {
		t.Errorf("enriched/skipped = %v/%v, want both clips enriched", result.EnrichedClips, result.SkippedClips)
	}

	sent := mailer.SentMessages()
	if len(sent) != 1 || sent[0].To != "owner@example.com" {
		t.Errorf("owner notification = %v, want one message to owner", sent)
	}
}

func TestProcessVideoSkipsEnrichedClip(t *testing.T) {
	repo := newStubRepo()
	repo.videos[1] = &models.Video{ID: 1, User: models.User{Email: "owner@example.com"}}
	repo.clips[10] = &models.VideoClip{ID: 10, VideoID: 1, VideoPath: "/uploads/a.webm", AudioPath: "/uploads/a.wav", OutputPath: "/media/a.flv", YouTubeID: "yt-123"}

	w, merger, publisher, eventPublisher, _ := newWorkerFixture(repo)

	w.ProcessVideo(context.Background(), &events.VideoApprovedEvent{VideoID: 1, ClipIDs: []uint{10}})

	if len(merger.Calls) != 0 || len(publisher.Calls) != 0 {
		t.Errorf("merge/publish calls = %d/%d, want 0/0 for an enriched clip", len(merger.Calls), len(publisher.Calls))
	}
	if repo.clip(10).YouTubeID != "yt-123" {
		t.Error("enriched clip should keep its published id")
	}
	result := eventPublisher.GetPublishedEvents()[0].Data.(*events.VideoEnrichedEvent)
	if len(result.EnrichedClips) != 0 || len(result.SkippedClips) != 0 {
		t.Errorf("enriched/skipped = %v/%v, want neither", result.EnrichedClips, result.SkippedClips)
	}
}

func TestProcessVideoFailedClipDoesNotBlockOthers(t *testing.T) {
	repo := newStubRepo()
	repo.videos[1] = &models.Video{ID: 1, User: models.User{Email: "owner@example.com"}}
	repo.clips[10] = &models.VideoClip{ID: 10, VideoID: 1, VideoPath: "/uploads/a.webm", AudioPath: "/uploads/a.wav"}

	w, _, _, eventPublisher, _ := newWorkerFixture(repo)

	// Clip 99 does not exist, clip 10 should still be processed
	w.ProcessVideo(context.Background(), &events.VideoApprovedEvent{VideoID: 1, ClipIDs: []uint{99, 10}})

	if repo.clip(10).YouTubeID == "" {
		t.Error("surviving clip should be enriched")
	}
	result := eventPublisher.GetPublishedEvents()[0].Data.(*events.VideoEnrichedEvent)
	if len(result.EnrichedClips) != 1 || result.EnrichedClips[0] != 10 {
		t.Errorf("EnrichedClips = %v, want [10]", result.EnrichedClips)
	}
	if len(result.SkippedClips) != 1 || result.SkippedClips[0] != 99 {
		t.Errorf("SkippedClips = %v, want [99]", result.SkippedClips)
	}
}

func TestProcessVideoMergeUnavailable(t *testing.T) {
	repo := newStubRepo()
	repo.videos[1] = &models.Video{ID: 1, User: models.User{Email: "owner@example.com"}}
	repo.clips[10] = &models.VideoClip{ID: 10, VideoID: 1, VideoPath: "/uploads/a.webm", AudioPath: "/uploads/a.wav"}

	w, merger, publisher, eventPublisher, mailer := newWorkerFixture(repo)
	merger.Err = media.ErrUnavailable

	w.ProcessVideo(context.Background(), &events.VideoApprovedEvent{VideoID: 1, ClipIDs: []uint{10}})

	if len(publisher.Calls) != 0 {
		t.Error("publish should not run when merge fails")
	}
	if repo.clip(10).OutputPath != "" {
		t.Error("failed merge should leave the clip untouched")
	}
	result := eventPublisher.GetPublishedEvents()[0].Data.(*events.VideoEnrichedEvent)
	if len(result.SkippedClips) != 1 {
		t.Errorf("SkippedClips = %v, want the clip", result.SkippedClips)
	}

	// Owner still hears about the approval
	if len(mailer.SentMessages()) != 1 {
		t.Error("owner notification should survive a skipped enrichment")
	}
}

func TestProcessVideoResumesAfterMerge(t *testing.T) {
	repo := newStubRepo()
	repo.videos[1] = &models.Video{ID: 1, User: models.User{Email: "owner@example.com"}}
	repo.clips[10] = &models.VideoClip{ID: 10, VideoID: 1, VideoPath: "/uploads/a.webm", AudioPath: "/uploads/a.wav", OutputPath: "/media/a.flv"}

	w, merger, publisher, _, _ := newWorkerFixture(repo)

	w.ProcessVideo(context.Background(), &events.VideoApprovedEvent{VideoID: 1, ClipIDs: []uint{10}})

	if len(merger.Calls) != 0 {
		t.Error("merge should not rerun for a clip that already has an output")
	}
	if len(publisher.Calls) != 1 {
		t.Errorf("publish calls = %d, want 1", len(publisher.Calls))
	}
	if repo.clip(10).YouTubeID == "" {
		t.Error("clip should be published")
	}
}

func TestWorkerConsumesApprovalEvents(t *testing.T) {
	repo := newStubRepo()
	repo.videos[1] = &models.Video{ID: 1, User: models.User{Email: "owner@example.com"}}
	repo.clips[10] = &models.VideoClip{ID: 10, VideoID: 1, VideoPath: "/uploads/a.webm", AudioPath: "/uploads/a.wav"}

	channel := events.NewChannelEventPublisher(testLogger())
	defer channel.Close()

	merger := media.NewMockMerger()
	publisher := media.NewMockPublisher()
	mailer := mail.NewMockService()
	w := NewEnrichmentWorker(repo, channel.Subscriber(), merger, publisher, events.NewMockEventPublisher(testLogger()), mailer, testLogger())

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	event := events.NewEvent(events.EventTypeVideoApproved, &events.VideoApprovedEvent{VideoID: 1, ClipIDs: []uint{10}})
	if err := channel.Publish(context.Background(), events.TopicVideos, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if repo.clip(10).YouTubeID != "" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("clip was not enriched before the deadline")
}
