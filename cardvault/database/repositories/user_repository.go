package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/uptrace/bun"
)

// UserCounters are deltas applied to a user's cumulative counters.
type UserCounters struct {
	BoostersOpened  int64
	LegendaryFound  int64
	ShinyFound      int64
	TradesCompleted int64
	CardsSold       int64
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	SetCollectionPublic(ctx context.Context, id int64, public bool) error
	AddCredits(ctx context.Context, db bun.IDB, id int64, amount int64) error
	IncrementCounters(ctx context.Context, db bun.IDB, id int64, delta UserCounters) error
	GetUserCount(ctx context.Context) (int64, error)
	TotalCredits(ctx context.Context) (int64, error)
}

type userRepository struct {
	*BaseRepository
}

func NewUserRepository(db *bun.DB) UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	_, err := r.db.NewInsert().
		Model(user).
		Returning("id").
		Exec(ctx)
	if isUniqueViolation(err) {
		return &ConflictError{Entity: "user", Field: "username", Value: user.Username}
	}
	return r.HandleError("create", "user", err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := new(models.User)
	err := r.SelectOneWithTimeout(ctx, "get", "user", id, func(ctx context.Context) error {
		return r.db.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := new(models.User)
	err := r.SelectOneWithTimeout(ctx, "get_by_username", "user", username, func(ctx context.Context) error {
		return r.db.NewSelect().
			Model(user).
			Where("LOWER(username) = ?", strings.ToLower(username)).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	exists, err := r.db.NewSelect().Model((*models.User)(nil)).Where("id = ?", id).Exists(ctx)
	return exists, r.HandleError("exists", "user", err)
}

func (r *userRepository) SetCollectionPublic(ctx context.Context, id int64, public bool) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	result, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("collection_public = ?", public).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleError("update_settings", "user", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &NotFoundError{Entity: "user", ID: id}
	}
	return nil
}

// AddCredits credits a user. Negative amounts are refused by the credits CHECK constraint
// when they would overdraw; debits should go through the guarded transaction manager instead.
func (r *userRepository) AddCredits(ctx context.Context, db bun.IDB, id int64, amount int64) error {
	if db == nil {
		db = r.db
	}
	result, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("credits = credits + ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleError("add_credits", "user", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &NotFoundError{Entity: "user", ID: id}
	}
	return nil
}

func (r *userRepository) IncrementCounters(ctx context.Context, db bun.IDB, id int64, delta UserCounters) error {
	if db == nil {
		db = r.db
	}
	_, err := db.NewUpdate().
		Model((*models.User)(nil)).
		Set("boosters_opened = boosters_opened + ?", delta.BoostersOpened).
		Set("legendary_found = legendary_found + ?", delta.LegendaryFound).
		Set("shiny_found = shiny_found + ?", delta.ShinyFound).
		Set("trades_completed = trades_completed + ?", delta.TradesCompleted).
		Set("cards_sold = cards_sold + ?", delta.CardsSold).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return r.HandleError("increment_counters", "user", err)
}

func (r *userRepository) GetUserCount(ctx context.Context) (int64, error) {
	count, err := r.Count(ctx, "user", r.db.NewSelect().Model((*models.User)(nil)))
	return int64(count), err
}

func (r *userRepository) TotalCredits(ctx context.Context) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var total int64
	err := r.db.NewSelect().
		Model((*models.User)(nil)).
		ColumnExpr("COALESCE(SUM(credits), 0)").
		Scan(ctx, &total)
	return total, r.HandleError("total_credits", "user", err)
}
