// Package analysis runs the end-to-end note pipeline: fetch, summarize,
// persist, publish.
package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
	"github.com/lihongqing2001-gif/XhsInsight/internal/metrics"
)

// Fetcher resolves a note request to content.
type Fetcher interface {
	FetchFor(ctx context.Context, ownerID string, url string, credential string) (insight.NoteContent, error)
}

// Service orchestrates one analysis request end to end.
type Service struct {
	fetcher    Fetcher
	summarizer insight.Summarizer
	notes      insight.NoteStore
	blobs      insight.BlobStore
	publisher  insight.Publisher
	ids        insight.IDGenerator
	clock      insight.Clock
	topic      string
	logger     *zap.Logger
}

// New constructs a Service.
func New(
	fetcher Fetcher,
	summarizer insight.Summarizer,
	notes insight.NoteStore,
	blobs insight.BlobStore,
	publisher insight.Publisher,
	ids insight.IDGenerator,
	clock insight.Clock,
	topic string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Service{
		fetcher:    fetcher,
		summarizer: summarizer,
		notes:      notes,
		blobs:      blobs,
		publisher:  publisher,
		ids:        ids,
		clock:      clock,
		topic:      topic,
		logger:     logger,
	}
}

// analyzedEvent is the payload published after a record is saved.
type analyzedEvent struct {
	NoteID     string `json:"note_id"`
	OwnerID    string `json:"owner_id"`
	URL        string `json:"url"`
	IsFallback bool   `json:"is_fallback"`
}

// Analyze fetches the note, summarizes real content, persists the record, and
// publishes a completion event. A non-empty credential bypasses the pool for
// this one request.
func (s *Service) Analyze(ctx context.Context, ownerID string, url string, credential string) (insight.NoteRecord, error) {
	content, err := s.fetcher.FetchFor(ctx, ownerID, url, credential)
	if err != nil {
		return insight.NoteRecord{}, err
	}

	id, err := s.ids.NewID()
	if err != nil {
		return insight.NoteRecord{}, fmt.Errorf("generate record id: %w", err)
	}

	record := insight.NoteRecord{
		ID:           id,
		OwnerID:      ownerID,
		URL:          content.URL,
		Title:        content.Title,
		Body:         content.Body,
		CoverImage:   content.CoverImage,
		LikeCount:    content.LikeCount,
		CollectCount: content.CollectCount,
		CommentCount: content.CommentCount,
		IsFallback:   content.IsFallback,
		CreatedAt:    s.clock.Now(),
	}

	// Placeholder content carries no signal worth summarizing or archiving.
	if content.IsFallback {
		record.SummaryText = "演示模式：未连接真实抓取引擎，以上为占位内容。"
	} else {
		summary, err := s.summarizer.Summarize(ctx, content.Title, content.Body, content.TopComments)
		if err != nil {
			s.logger.Warn("summarize note",
				zap.String("note_id", id),
				zap.Error(err),
			)
		} else {
			record.SummaryText = summary
		}

		if len(content.Raw) > 0 {
			uri, err := s.blobs.PutObject(ctx, "notes/"+id+".html", "text/html; charset=utf-8", content.Raw)
			if err != nil {
				s.logger.Warn("archive raw page",
					zap.String("note_id", id),
					zap.Error(err),
				)
			} else {
				record.BlobURI = uri
			}
		}
	}

	if err := s.notes.SaveNote(ctx, record); err != nil {
		return insight.NoteRecord{}, fmt.Errorf("save note record: %w", err)
	}

	if _, err := s.publisher.Publish(ctx, s.topic, analyzedEvent{
		NoteID:     record.ID,
		OwnerID:    record.OwnerID,
		URL:        record.URL,
		IsFallback: record.IsFallback,
	}); err != nil {
		// The record is already durable; event delivery is best effort.
		s.logger.Warn("publish analyzed event",
			zap.String("note_id", record.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("note analyzed",
		zap.String("note_id", record.ID),
		zap.String("owner_id", record.OwnerID),
		zap.Bool("is_fallback", record.IsFallback),
	)
	return record, nil
}

// History lists the owner's analysis records, newest first.
func (s *Service) History(ctx context.Context, ownerID string) ([]insight.NoteRecord, error) {
	records, err := s.notes.ListNotes(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list note records: %w", err)
	}
	return records, nil
}
