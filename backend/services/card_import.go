package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pelletier/go-toml/v2"

	webmodels "github.com/cardvault/cardvault/backend/models"
	"github.com/cardvault/cardvault/backend/utils"
	"github.com/cardvault/cardvault/cardvault/database/models"
)

// CatalogFile is the TOML layout of a catalog seed file:
//
//	[[card]]
//	name = "Ember Drake"
//	rarity = "EPIC"
//	description = "..."
//	power = 7
type CatalogFile struct {
	Cards []CatalogEntry `toml:"card"`
}

type CatalogEntry struct {
	Name        string        `toml:"name"`
	Rarity      models.Rarity `toml:"rarity"`
	Description string        `toml:"description"`
	Quote       string        `toml:"quote"`
	Power       int           `toml:"power"`
}

// CardBulkCreator inserts cards, skipping any whose (name, rarity) already exists.
type CardBulkCreator interface {
	BulkCreate(ctx context.Context, cards []*models.Card) (int, error)
}

// CardImportService loads catalog definitions from TOML
type CardImportService struct {
	cards     CardBulkCreator
	catalog   CatalogInvalidator
	sanitizer TextSanitizer
}

// NewCardImportService creates a new card import service
func NewCardImportService(cards CardBulkCreator, catalog CatalogInvalidator, sanitizer TextSanitizer) *CardImportService {
	return &CardImportService{
		cards:     cards,
		catalog:   catalog,
		sanitizer: sanitizer,
	}
}

// ParseCatalog decodes a catalog file and splits it into importable cards and rejected entries.
func (cis *CardImportService) ParseCatalog(r io.Reader) ([]*models.Card, []string, error) {
	var file CatalogFile
	if err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	cards := make([]*models.Card, 0, len(file.Cards))
	var rejected []string
	for i, entry := range file.Cards {
		req := &webmodels.CardCreateRequest{
			Name:        entry.Name,
			Rarity:      entry.Rarity,
			Description: entry.Description,
			Quote:       entry.Quote,
			Power:       entry.Power,
		}
		if errs := utils.ValidateCardCreate(req); len(errs) > 0 {
			rejected = append(rejected, fmt.Sprintf("card %d (%s): %s %s", i+1, entry.Name, errs[0].Field, errs[0].Description))
			continue
		}
		cards = append(cards, &models.Card{
			Name:        cis.sanitizer.Text(entry.Name, utils.MaxCardNameLength),
			Rarity:      entry.Rarity,
			Description: cis.sanitizer.Text(entry.Description, utils.MaxDescriptionLength),
			Quote:       cis.sanitizer.Text(entry.Quote, utils.MaxQuoteLength),
			Power:       entry.Power,
		})
	}
	return cards, rejected, nil
}

// ImportCatalog parses a catalog file and inserts the cards that are not already present.
func (cis *CardImportService) ImportCatalog(ctx context.Context, r io.Reader) (*webmodels.CatalogImportResult, error) {
	startTime := time.Now()

	cards, rejected, err := cis.ParseCatalog(r)
	if err != nil {
		return nil, err
	}

	result := &webmodels.CatalogImportResult{
		Parsed:   len(cards) + len(rejected),
		Rejected: rejected,
	}
	if len(cards) > 0 {
		created, err := cis.cards.BulkCreate(ctx, cards)
		if err != nil {
			return nil, fmt.Errorf("failed to import cards: %w", err)
		}
		result.Created = created
		result.Skipped = len(cards) - created
		cis.catalog.Invalidate()
	}

	slog.Info("Catalog import completed",
		slog.String("type", "sys"),
		slog.Int("parsed", result.Parsed),
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
		slog.Int("rejected", len(result.Rejected)),
		slog.Duration("took", time.Since(startTime)))

	return result, nil
}
