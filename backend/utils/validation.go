package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cardvault/cardvault/backend/models"
	"github.com/cardvault/cardvault/cardvault/config"
	dbmodels "github.com/cardvault/cardvault/cardvault/database/models"
)

const (
	MinUsernameLength    = 3
	MaxUsernameLength    = 32
	MinPasswordLength    = 8
	MaxPasswordLength    = 72 // bcrypt ignores anything past 72 bytes
	MaxCardNameLength    = 64
	MaxDescriptionLength = 500
	MaxQuoteLength       = 200
	MaxBoosterNameLength = 64
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidationErrors collects field errors in order.
type ValidationErrors []models.ValidationError

func (v *ValidationErrors) add(field, description string) {
	*v = append(*v, models.ValidationError{Field: field, Description: description})
}

// Details flattens the errors for the API error envelope.
func (v ValidationErrors) Details() map[string]string {
	if len(v) == 0 {
		return nil
	}
	details := make(map[string]string, len(v))
	for _, e := range v {
		if _, ok := details[e.Field]; !ok {
			details[e.Field] = e.Description
		}
	}
	return details
}

// ValidateCredentials checks a username/password pair for registration.
func ValidateCredentials(username, password string) ValidationErrors {
	var errs ValidationErrors

	n := utf8.RuneCountInString(username)
	switch {
	case n < MinUsernameLength || n > MaxUsernameLength:
		errs.add("username", "must be between 3 and 32 characters")
	case !usernamePattern.MatchString(username):
		errs.add("username", "may only contain letters, digits and underscores")
	}

	switch {
	case len(password) < MinPasswordLength:
		errs.add("password", "must be at least 8 characters")
	case len(password) > MaxPasswordLength:
		errs.add("password", "must be at most 72 bytes")
	}
	return errs
}

func validateText(errs *ValidationErrors, field, value string, required bool, max int) {
	trimmed := strings.TrimSpace(value)
	if required && trimmed == "" {
		errs.add(field, "is required")
		return
	}
	if utf8.RuneCountInString(trimmed) > max {
		errs.add(field, "is too long")
	}
}

// ValidateCardCreate checks a new card definition.
func ValidateCardCreate(req *models.CardCreateRequest) ValidationErrors {
	var errs ValidationErrors
	validateText(&errs, "name", req.Name, true, MaxCardNameLength)
	if !req.Rarity.Valid() {
		errs.add("rarity", "must be one of COMMON, UNCOMMON, RARE, EPIC, LEGENDARY")
	}
	validateText(&errs, "description", req.Description, false, MaxDescriptionLength)
	validateText(&errs, "quote", req.Quote, false, MaxQuoteLength)
	if req.Power < 0 {
		errs.add("power", "must not be negative")
	}
	return errs
}

// ValidateCardUpdate checks the fields present in a partial update.
func ValidateCardUpdate(req *models.CardUpdateRequest) ValidationErrors {
	var errs ValidationErrors
	if req.Name != nil {
		validateText(&errs, "name", *req.Name, true, MaxCardNameLength)
	}
	if req.Rarity != nil && !req.Rarity.Valid() {
		errs.add("rarity", "must be one of COMMON, UNCOMMON, RARE, EPIC, LEGENDARY")
	}
	if req.Description != nil {
		validateText(&errs, "description", *req.Description, false, MaxDescriptionLength)
	}
	if req.Quote != nil {
		validateText(&errs, "quote", *req.Quote, false, MaxQuoteLength)
	}
	if req.Power != nil && *req.Power < 0 {
		errs.add("power", "must not be negative")
	}
	return errs
}

// ValidateBoosterConfig checks an admin booster edit.
func ValidateBoosterConfig(req *models.BoosterConfigRequest) ValidationErrors {
	var errs ValidationErrors
	validateText(&errs, "name", req.Name, true, MaxBoosterNameLength)
	if req.Cost < 0 {
		errs.add("cost", "must not be negative")
	}
	if req.CardCount <= 0 {
		errs.add("card_count", "must be positive")
	}
	return errs
}

// ValidateTradeLines checks the shape of one side of a trade before it reaches the manager.
func ValidateTradeLines(field string, lines []models.TradeLine) ValidationErrors {
	var errs ValidationErrors
	for _, line := range lines {
		if line.CardID <= 0 {
			errs.add(field, "card_id must be positive")
			break
		}
		if line.Quantity <= 0 {
			errs.add(field, "quantity must be positive")
			break
		}
		if line.Quantity > config.MaxSellQuantity {
			errs.add(field, fmt.Sprintf("quantity must not exceed %d", config.MaxSellQuantity))
			break
		}
	}
	return errs
}

// ValidateRarity parses an optional rarity filter; the empty string means no filter.
func ValidateRarity(value string) (dbmodels.Rarity, ValidationErrors) {
	if value == "" {
		return 0, nil
	}
	rarity, err := dbmodels.ParseRarity(value)
	if err != nil {
		var errs ValidationErrors
		errs.add("rarity", "must be one of COMMON, UNCOMMON, RARE, EPIC, LEGENDARY")
		return 0, errs
	}
	return rarity, nil
}
