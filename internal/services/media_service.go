package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"eventphoto-backend/internal/config"
	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/ordering"
	"eventphoto-backend/internal/postgres"
	"eventphoto-backend/internal/supabase"
	"eventphoto-backend/internal/watermark"
)

type MediaService struct {
	db       *postgres.Client
	public   *supabase.StorageClient
	private  *supabase.StorageClient
	tiler    *watermark.Tiler
	realtime *supabase.RealtimeClient
	cfg      *config.Config
}

func NewMediaService(db *postgres.Client, public, private *supabase.StorageClient, tiler *watermark.Tiler, realtime *supabase.RealtimeClient, cfg *config.Config) *MediaService {
	return &MediaService{
		db:       db,
		public:   public,
		private:  private,
		tiler:    tiler,
		realtime: realtime,
		cfg:      cfg,
	}
}

// AddMedia stores a new photo under a member: the clean original goes to the
// private bucket, a watermarked preview to the public one, and the row takes
// the next position in the member's sequence.
func (s *MediaService) AddMedia(ctx context.Context, memberID uuid.UUID, filename string, data []byte) (*models.Media, error) {
	if _, err := s.db.GetMember(ctx, memberID); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, fmt.Errorf("%w: member %s", ErrNotFound, memberID)
		}
		return nil, err
	}

	mediaID := uuid.New()

	fullURL, err := s.private.UploadFile(fmt.Sprintf("members/%s/full/%s_%s", memberID, mediaID, filename), data, "")
	if err != nil {
		return nil, err
	}

	preview, err := s.tiler.Apply(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	previewURL, err := s.public.UploadFile(fmt.Sprintf("members/%s/preview/%s_%s", memberID, mediaID, filename), preview, "")
	if err != nil {
		return nil, err
	}

	media := &models.Media{
		ID:          mediaID,
		MemberID:    memberID,
		Filename:    filename,
		Preview:     previewURL,
		FullVersion: fullURL,
		Price:       s.cfg.DefaultMediaPrice,
	}

	err = s.db.WithMediaSequence(ctx, func(store ordering.Store) error {
		position, err := ordering.NextPosition(ctx, store, memberID)
		if err != nil {
			return err
		}
		media.Position = position
		return postgres.CreateMediaInSequence(ctx, store, media)
	})
	if err != nil {
		return nil, err
	}

	return media, nil
}

// UpdateMedia moves a media item to a new position in its member's sequence
// and optionally reprices it.
func (s *MediaService) UpdateMedia(ctx context.Context, mediaID uuid.UUID, req models.UpdateMediaRequest) (*models.Media, error) {
	err := s.db.WithMediaSequence(ctx, func(store ordering.Store) error {
		return ordering.Move(ctx, store, mediaID, req.Position)
	})
	if err != nil {
		return nil, sequenceError(err, mediaID)
	}

	if req.Price != nil {
		if err := s.db.UpdateMediaPrice(ctx, mediaID, *req.Price); err != nil {
			return nil, err
		}
	}

	media, err := s.db.GetMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	return media, nil
}

// DeleteMedia removes a media item; the member's sequence closes over the
// gap in the same transaction. Storage cleanup is best effort.
func (s *MediaService) DeleteMedia(ctx context.Context, mediaID uuid.UUID) error {
	media, err := s.db.GetMedia(ctx, mediaID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return fmt.Errorf("%w: media %s", ErrNotFound, mediaID)
		}
		return err
	}

	err = s.db.WithMediaSequence(ctx, func(store ordering.Store) error {
		return ordering.Remove(ctx, store, mediaID)
	})
	if err != nil {
		return sequenceError(err, mediaID)
	}

	prefix := fmt.Sprintf("members/%s", media.MemberID)
	if err := s.private.DeleteFile(fmt.Sprintf("%s/full/%s_%s", prefix, media.ID, media.Filename)); err != nil {
		log.Printf("[%s]: failed to delete original from storage: %v", mediaID, err)
	}
	if err := s.public.DeleteFile(fmt.Sprintf("%s/preview/%s_%s", prefix, media.ID, media.Filename)); err != nil {
		log.Printf("[%s]: failed to delete preview from storage: %v", mediaID, err)
	}
	return nil
}

// UploadProcessedMedia attaches retouched files to a purchased media item.
// Only items bought with processing requested accept an upload.
func (s *MediaService) UploadProcessedMedia(ctx context.Context, orderID, mediaID uuid.UUID, filename string, data []byte) (*models.OrderMedia, error) {
	om, err := s.db.GetOrderMedia(ctx, orderID, mediaID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, fmt.Errorf("%w: media %s on order %s", ErrNotFound, mediaID, orderID)
		}
		return nil, err
	}
	if !om.RequiresProcessing {
		return nil, fmt.Errorf("%w: media was not bought with processing", ErrInvalidArgument)
	}

	fullURL, err := s.private.UploadFile(fmt.Sprintf("processed/%s/full/%s_%s", orderID, mediaID, filename), data, "")
	if err != nil {
		return nil, err
	}

	preview, err := s.tiler.Apply(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	previewURL, err := s.public.UploadFile(fmt.Sprintf("processed/%s/preview/%s_%s", orderID, mediaID, filename), preview, "")
	if err != nil {
		return nil, err
	}

	updated, err := s.db.SetOrderMediaProcessed(ctx, orderID, mediaID, previewURL, fullURL)
	if err != nil {
		return nil, err
	}

	if s.realtime != nil {
		if err := s.realtime.PublishOrderEvent(orderID, "media_processed", supabase.MediaProcessedPayload(orderID, mediaID)); err != nil {
			log.Printf("[%s]: failed to publish processed event: %v", orderID, err)
		}
	}
	return updated, nil
}

func sequenceError(err error, mediaID uuid.UUID) error {
	switch {
	case errors.Is(err, ordering.ErrNotFound):
		return fmt.Errorf("%w: media %s", ErrNotFound, mediaID)
	case errors.Is(err, ordering.ErrInvalidPosition):
		return fmt.Errorf("%w: position out of range", ErrInvalidArgument)
	default:
		return err
	}
}
