package repositories

import (
	"context"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/uptrace/bun"
)

type AchievementRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]*models.UserAchievement, error)
	// Unlock records the achievement and credits the reward. It reports false when the
	// user already had it, in which case nothing is credited.
	Unlock(ctx context.Context, userID int64, code string, reward int64) (bool, error)
}

type achievementRepository struct {
	*BaseRepository
}

func NewAchievementRepository(db *bun.DB) AchievementRepository {
	return &achievementRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *achievementRepository) ListByUser(ctx context.Context, userID int64) ([]*models.UserAchievement, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var list []*models.UserAchievement
	err := r.db.NewSelect().
		Model(&list).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Scan(ctx)
	return list, r.HandleError("list", "achievement", err)
}

func (r *achievementRepository) Unlock(ctx context.Context, userID int64, code string, reward int64) (bool, error) {
	unlocked := false
	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewInsert().
			Model(&models.UserAchievement{
				UserID:     userID,
				Code:       code,
				Reward:     reward,
				UnlockedAt: time.Now(),
			}).
			On("CONFLICT (user_id, code) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return nil
		}
		unlocked = true

		if reward > 0 {
			_, err = tx.NewUpdate().
				Model((*models.User)(nil)).
				Set("credits = credits + ?", reward).
				Where("id = ?", userID).
				Exec(ctx)
		}
		return err
	})
	return unlocked, r.HandleError("unlock", "achievement", err)
}
