package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	webmodels "github.com/cardvault/cardvault/backend/models"
	"github.com/cardvault/cardvault/backend/utils"
	"github.com/cardvault/cardvault/cardvault/database/models"
)

// CardStore is the card repository surface used by admin card management.
type CardStore interface {
	Create(ctx context.Context, card *models.Card) error
	GetByID(ctx context.Context, id int64) (*models.Card, error)
	Update(ctx context.Context, card *models.Card) error
	UpdateImage(ctx context.Context, id int64, url string) error
	Delete(ctx context.Context, id int64) error
}

// ImageStore keeps card images in blob storage.
type ImageStore interface {
	UploadCardImage(ctx context.Context, cardID int64, data []byte) (string, error)
	DeleteCardImage(ctx context.Context, url string) error
}

type CatalogInvalidator interface {
	Invalidate()
}

type TextSanitizer interface {
	Text(in string, maxRunes int) string
}

// CardManagementService provides card management operations for the admin API
type CardManagementService struct {
	cards     CardStore
	images    ImageStore
	catalog   CatalogInvalidator
	sanitizer TextSanitizer
}

// NewCardManagementService creates a new card management service. images may be nil when
// blob storage is not configured; image uploads then fail and deletes skip the image.
func NewCardManagementService(cards CardStore, images ImageStore, catalog CatalogInvalidator, sanitizer TextSanitizer) *CardManagementService {
	return &CardManagementService{
		cards:     cards,
		images:    images,
		catalog:   catalog,
		sanitizer: sanitizer,
	}
}

// CreateCard adds a card to the catalog
func (cms *CardManagementService) CreateCard(ctx context.Context, req *webmodels.CardCreateRequest) (*models.Card, error) {
	card := &models.Card{
		Name:        cms.sanitizer.Text(req.Name, utils.MaxCardNameLength),
		Rarity:      req.Rarity,
		Description: cms.sanitizer.Text(req.Description, utils.MaxDescriptionLength),
		Quote:       cms.sanitizer.Text(req.Quote, utils.MaxQuoteLength),
		Power:       req.Power,
	}
	if err := cms.cards.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	cms.catalog.Invalidate()

	slog.Info("Card created successfully",
		slog.String("type", "game"),
		slog.Int64("card_id", card.ID),
		slog.String("name", card.Name),
		slog.String("rarity", card.Rarity.String()))

	return card, nil
}

// UpdateCard applies the non-nil fields of req to an existing card
func (cms *CardManagementService) UpdateCard(ctx context.Context, cardID int64, req *webmodels.CardUpdateRequest) (*models.Card, error) {
	card, err := cms.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		card.Name = cms.sanitizer.Text(*req.Name, utils.MaxCardNameLength)
	}
	if req.Rarity != nil {
		card.Rarity = *req.Rarity
	}
	if req.Description != nil {
		card.Description = cms.sanitizer.Text(*req.Description, utils.MaxDescriptionLength)
	}
	if req.Quote != nil {
		card.Quote = cms.sanitizer.Text(*req.Quote, utils.MaxQuoteLength)
	}
	if req.Power != nil {
		card.Power = *req.Power
	}

	if err := cms.cards.Update(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to update card: %w", err)
	}
	cms.catalog.Invalidate()

	slog.Info("Card updated successfully",
		slog.String("type", "game"),
		slog.Int64("card_id", card.ID),
		slog.String("name", card.Name))

	return card, nil
}

// SetCardImage uploads an image and points the card at it. The previous image is removed
// only when the new one landed under a different key.
func (cms *CardManagementService) SetCardImage(ctx context.Context, cardID int64, data []byte) (*models.Card, error) {
	if cms.images == nil {
		return nil, fmt.Errorf("image storage is not configured")
	}

	card, err := cms.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	url, err := cms.images.UploadCardImage(ctx, card.ID, data)
	if err != nil {
		slog.Error("Failed to upload card image",
			slog.String("type", "error"),
			slog.Int64("card_id", card.ID),
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := cms.cards.UpdateImage(ctx, card.ID, url); err != nil {
		return nil, fmt.Errorf("failed to store image url: %w", err)
	}

	previous := card.ImageURL
	card.ImageURL = url
	if previous != "" && stripQuery(previous) != stripQuery(url) {
		if err := cms.images.DeleteCardImage(ctx, previous); err != nil {
			slog.Warn("Failed to delete replaced card image",
				slog.Int64("card_id", card.ID),
				slog.String("error", err.Error()))
		}
	}
	cms.catalog.Invalidate()

	return card, nil
}

// DeleteCard removes a card, every collected copy of it, and its image
func (cms *CardManagementService) DeleteCard(ctx context.Context, cardID int64) error {
	card, err := cms.cards.GetByID(ctx, cardID)
	if err != nil {
		return err
	}

	if err := cms.cards.Delete(ctx, cardID); err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	cms.catalog.Invalidate()

	if cms.images != nil && card.ImageURL != "" {
		if err := cms.images.DeleteCardImage(ctx, card.ImageURL); err != nil {
			slog.Warn("Failed to delete card image",
				slog.Int64("card_id", card.ID),
				slog.String("error", err.Error()))
		}
	}

	slog.Info("Card deleted successfully",
		slog.String("type", "game"),
		slog.Int64("card_id", card.ID),
		slog.String("name", card.Name))

	return nil
}

func stripQuery(url string) string {
	base, _, _ := strings.Cut(url, "?")
	return base
}
