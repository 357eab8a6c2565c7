package media

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumenai/companion-api/internal/domain/billing"
	"github.com/lumenai/companion-api/internal/domain/wallet"
	"github.com/lumenai/companion-api/internal/pkg/aiprovider"
	"github.com/lumenai/companion-api/internal/pkg/errorhandler"
	"github.com/lumenai/companion-api/internal/pkg/imaging"
	"github.com/lumenai/companion-api/internal/pkg/logger"
	"github.com/lumenai/companion-api/internal/pkg/storage"
)

// Generator is the provider surface media generation uses.
type Generator interface {
	GenerateImage(ctx context.Context, prompt, size string) ([]byte, error)
	Speak(ctx context.Context, text, voice string) ([]byte, string, error)
	GenerateVideo(ctx context.Context, prompt string, seconds int) (*aiprovider.Video, error)
}

// ImageProcessor normalises a generated image and cuts its thumbnail.
type ImageProcessor interface {
	Process(data []byte) (*imaging.Rendition, error)
}

// Service generates media and bills for it once the asset is stored.
type Service struct {
	repo      Repository
	generator Generator
	images    ImageProcessor
	store     storage.Storage
	biller    billing.Biller
}

// NewService creates media service
func NewService(repo Repository, generator Generator, images ImageProcessor, store storage.Storage, biller billing.Biller) *Service {
	return &Service{repo: repo, generator: generator, images: images, store: store, biller: biller}
}

// Result is a delivered asset plus what it cost.
type Result struct {
	Asset  *Asset
	Charge billing.Charge
}

// GenerateImage renders an image, stores it with a thumbnail and charges 10 coins.
func (s *Service) GenerateImage(ctx context.Context, userID uuid.UUID, req *ImageRequest) (*Result, error) {
	if err := s.biller.Preflight(ctx, userID.String(), billing.PriceImage); err != nil {
		return nil, err
	}

	raw, err := s.generator.GenerateImage(ctx, req.Prompt, req.Size)
	if err != nil {
		errorhandler.LogExternalServiceError(ctx, "aiprovider", "image", err)
		return nil, ErrGenerationFailed
	}

	rendition, err := s.images.Process(raw)
	if err != nil {
		errorhandler.LogExternalServiceError(ctx, "aiprovider", "image decode", err)
		return nil, ErrGenerationFailed
	}

	asset := newAsset(userID, req.AgentID, KindImage, req.Prompt, billing.PriceImage)
	ext := imaging.Extension(rendition.ContentType)
	key := storage.MediaKey(userID.String(), string(KindImage), asset.ID.String(), ext)
	thumbKey := storage.MediaKey(userID.String(), string(KindImage), asset.ID.String()+"_thumb", ext)

	if err := s.put(ctx, key, rendition.Original, rendition.ContentType); err != nil {
		return nil, err
	}
	if err := s.put(ctx, thumbKey, rendition.Thumbnail, rendition.ContentType); err != nil {
		s.cleanup(ctx, key)
		return nil, err
	}

	asset.URL = s.store.URL(key)
	thumbURL := s.store.URL(thumbKey)
	asset.ThumbnailURL = &thumbURL
	asset.ContentType = rendition.ContentType

	return s.deliver(ctx, asset, wallet.ItemAIImage)
}

// GenerateVoice synthesises speech, stores the clip and charges 5 coins.
func (s *Service) GenerateVoice(ctx context.Context, userID uuid.UUID, req *VoiceRequest) (*Result, error) {
	if err := s.biller.Preflight(ctx, userID.String(), billing.PriceVoice); err != nil {
		return nil, err
	}

	audio, contentType, err := s.generator.Speak(ctx, req.Text, req.Voice)
	if err != nil {
		errorhandler.LogExternalServiceError(ctx, "aiprovider", "voice", err)
		return nil, ErrGenerationFailed
	}

	asset := newAsset(userID, req.AgentID, KindVoice, req.Text, billing.PriceVoice)
	key := storage.MediaKey(userID.String(), string(KindVoice), asset.ID.String(), audioExtension(contentType))
	if err := s.put(ctx, key, audio, contentType); err != nil {
		return nil, err
	}

	asset.URL = s.store.URL(key)
	asset.ContentType = contentType

	return s.deliver(ctx, asset, wallet.ItemAIVoice)
}

// GenerateVideo renders a clip. The provider hosts the file; the price
// depends on the clip length it actually returned.
func (s *Service) GenerateVideo(ctx context.Context, userID uuid.UUID, req *VideoRequest) (*Result, error) {
	if err := s.biller.Preflight(ctx, userID.String(), billing.VideoCost(req.Seconds)); err != nil {
		return nil, err
	}

	video, err := s.generator.GenerateVideo(ctx, req.Prompt, req.Seconds)
	if err != nil {
		errorhandler.LogExternalServiceError(ctx, "aiprovider", "video", err)
		return nil, ErrGenerationFailed
	}

	seconds := video.Seconds
	if seconds <= 0 {
		seconds = req.Seconds
	}

	asset := newAsset(userID, req.AgentID, KindVideo, req.Prompt, billing.VideoCost(seconds))
	asset.URL = video.URL
	asset.ContentType = "video/mp4"

	return s.deliver(ctx, asset, wallet.ItemAIVideo)
}

// List returns the user's assets, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, kind Kind, limit, offset int) ([]*Asset, error) {
	return s.repo.ListByUser(ctx, userID, kind, limit, offset)
}

// deliver charges for an asset that already exists and records it. A failed
// record does not take the asset away from the user.
func (s *Service) deliver(ctx context.Context, asset *Asset, itemType string) (*Result, error) {
	charge := s.biller.ChargeAfterSuccess(ctx, asset.UserID.String(), asset.Cost, itemType, asset.ID.String())
	asset.Charged = charge.Charged

	if err := s.repo.Create(context.WithoutCancel(ctx), asset); err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("asset_id", asset.ID.String()).
			Str("kind", string(asset.Kind)).
			Msg("Failed to record media asset")
	}

	return &Result{Asset: asset, Charge: charge}, nil
}

func (s *Service) put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := s.store.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
		errorhandler.LogExternalServiceError(ctx, "s3", "put "+key, err)
		return ErrUploadFailed
	}
	return nil
}

func (s *Service) cleanup(ctx context.Context, key string) {
	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Failed to remove orphaned media object")
	}
}

func newAsset(userID uuid.UUID, agentID string, kind Kind, prompt string, cost int64) *Asset {
	return &Asset{
		ID:        uuid.New(),
		UserID:    userID,
		AgentID:   agentID,
		Kind:      kind,
		Prompt:    prompt,
		Cost:      cost,
		CreatedAt: time.Now().UTC(),
	}
}

func audioExtension(contentType string) string {
	switch {
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return "mp3"
	case strings.Contains(contentType, "wav"):
		return "wav"
	case strings.Contains(contentType, "ogg"), strings.Contains(contentType, "opus"):
		return "ogg"
	default:
		return "bin"
	}
}
