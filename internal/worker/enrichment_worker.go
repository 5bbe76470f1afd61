package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/careersfromhere/testimonial-service/internal/events"
	"github.com/careersfromhere/testimonial-service/internal/mail"
	"github.com/careersfromhere/testimonial-service/internal/media"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/services"
)

// EnrichmentWorker consumes video approval events and runs the external
// enrichment steps per clip: merge the upload into the publishable format,
// then push it to the video host. Each step is best-effort. A failed or
// unavailable step skips the clip without blocking the others, and a clip
// that already carries a host id is never reprocessed.
type EnrichmentWorker struct {
	repo           repositories.Repository
	subscriber     message.Subscriber
	merger         media.Merger
	publisher      media.Publisher
	eventPublisher events.EventPublisher
	emailService   mail.EmailService
	logger         *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEnrichmentWorker(repo repositories.Repository, subscriber message.Subscriber, merger media.Merger, publisher media.Publisher, eventPublisher events.EventPublisher, emailService mail.EmailService, logger *slog.Logger) *EnrichmentWorker {
	return &EnrichmentWorker{
		repo:           repo,
		subscriber:     subscriber,
		merger:         merger,
		publisher:      publisher,
		eventPublisher: eventPublisher,
		emailService:   emailService,
		logger:         logger,
	}
}

// Start begins consuming approval events until Stop is called or ctx ends
func (w *EnrichmentWorker) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	messages, err := w.subscriber.Subscribe(ctx, events.TopicVideos)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.TopicVideos, err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for msg := range messages {
			w.handleMessage(ctx, msg)
			// Enrichment is best-effort, failed steps are retried on the
			// next approval rather than by redelivery
			msg.Ack()
		}
	}()

	w.logger.Info("Enrichment worker started", "topic", events.TopicVideos)

	return nil
}

// Stop cancels the subscription and waits for in-flight work
func (w *EnrichmentWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("Enrichment worker stopped")
}

func (w *EnrichmentWorker) handleMessage(ctx context.Context, msg *message.Message) {
	var envelope struct {
		ID   string          `json:"id"`
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		w.logger.Error("Failed to decode event envelope", "message_id", msg.UUID, "error", err)
		return
	}
	if envelope.Type != events.EventTypeVideoApproved {
		return
	}

	var event events.VideoApprovedEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		w.logger.Error("Failed to decode approval event", "event_id", envelope.ID, "error", err)
		return
	}

	w.ProcessVideo(ctx, &event)
}

// ProcessVideo runs the enrichment steps for every clip of an approved video
func (w *EnrichmentWorker) ProcessVideo(ctx context.Context, event *events.VideoApprovedEvent) {
	w.logger.Info("Enriching video", "video_id", event.VideoID, "clips", len(event.ClipIDs))

	var enriched, skipped []uint
	for _, clipID := range event.ClipIDs {
		ok, err := w.processClip(ctx, clipID)
		if err != nil {
			w.logger.Warn("Clip enrichment skipped", "clip_id", clipID, "error", err)
			skipped = append(skipped, clipID)
			continue
		}
		if ok {
			enriched = append(enriched, clipID)
		}
	}

	result := events.NewEvent(events.EventTypeVideoEnriched, &events.VideoEnrichedEvent{
		VideoID:       event.VideoID,
		EnrichedClips: enriched,
		SkippedClips:  skipped,
	})
	if err := w.eventPublisher.Publish(ctx, events.TopicVideos, result); err != nil {
		w.logger.Warn("Failed to publish enrichment result", "video_id", event.VideoID, "error", err)
	}

	w.notifyOwner(ctx, event.VideoID)

	w.logger.Info("Video enrichment completed",
		"video_id", event.VideoID,
		"enriched", len(enriched),
		"skipped", len(skipped))
}

// processClip runs merge then publish for one clip. Returns false with no
// error when the clip was already enriched.
func (w *EnrichmentWorker) processClip(ctx context.Context, clipID uint) (bool, error) {
	clip, err := w.repo.Video().GetClipByID(ctx, nil, clipID)
	if err != nil {
		return false, fmt.Errorf("failed to load clip %d: %w", clipID, err)
	}
	if clip.Enriched() {
		return false, nil
	}

	if clip.OutputPath == "" {
		outputPath, err := w.merger.Merge(ctx, clip.VideoPath, clip.AudioPath)
		if err != nil {
			return false, services.NewExternalStepError("merge", clipID, err)
		}
		clip.OutputPath = outputPath
		if err := w.repo.Video().UpdateClip(ctx, nil, clip); err != nil {
			return false, fmt.Errorf("failed to record merge result for clip %d: %w", clipID, err)
		}
	}

	youtubeID, err := w.publisher.Publish(ctx, clip.OutputPath, filepath.Base(clip.OutputPath))
	if err != nil {
		return false, services.NewExternalStepError("publish", clipID, err)
	}
	clip.YouTubeID = youtubeID
	if err := w.repo.Video().UpdateClip(ctx, nil, clip); err != nil {
		return false, fmt.Errorf("failed to record publish result for clip %d: %w", clipID, err)
	}

	return true, nil
}

func (w *EnrichmentWorker) notifyOwner(ctx context.Context, videoID uint) {
	video, err := w.repo.Video().GetByIDWithDetails(ctx, nil, videoID)
	if err != nil {
		w.logger.Warn("Failed to load video owner for notification", "video_id", videoID, "error", err)
		return
	}
	if video.User.Email == "" {
		return
	}
	w.emailService.SendMessages(ctx, mail.VideoApprovedMessage(video.User.Email, video.User.Name))
}
