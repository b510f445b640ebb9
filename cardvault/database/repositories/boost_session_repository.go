package repositories

import (
	"context"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/uptrace/bun"
)

type BoostSessionRepository interface {
	Create(ctx context.Context, session *models.BoostSession) error
	GetByID(ctx context.Context, id int64) (*models.BoostSession, error)
	List(ctx context.Context) ([]*models.BoostSession, error)
	Update(ctx context.Context, session *models.BoostSession) error
	Delete(ctx context.Context, id int64) error
	// ActiveAt returns the sessions boosting rates at t, soonest-ending first.
	ActiveAt(ctx context.Context, t time.Time) ([]*models.BoostSession, error)
}

type boostSessionRepository struct {
	*BaseRepository
}

func NewBoostSessionRepository(db *bun.DB) BoostSessionRepository {
	return &boostSessionRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *boostSessionRepository) Create(ctx context.Context, session *models.BoostSession) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	_, err := r.db.NewInsert().Model(session).Returning("id").Exec(ctx)
	return r.HandleError("create", "boost_session", err)
}

func (r *boostSessionRepository) GetByID(ctx context.Context, id int64) (*models.BoostSession, error) {
	session := new(models.BoostSession)
	err := r.SelectOneWithTimeout(ctx, "get", "boost_session", id, func(ctx context.Context) error {
		return r.db.NewSelect().Model(session).Where("id = ?", id).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *boostSessionRepository) List(ctx context.Context) ([]*models.BoostSession, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var sessions []*models.BoostSession
	err := r.db.NewSelect().Model(&sessions).Order("start_date DESC").Scan(ctx)
	return sessions, r.HandleError("list", "boost_session", err)
}

func (r *boostSessionRepository) Update(ctx context.Context, session *models.BoostSession) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	session.UpdatedAt = time.Now()
	result, err := r.db.NewUpdate().
		Model(session).
		Column("name", "active", "start_date", "end_date", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.HandleError("update", "boost_session", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &NotFoundError{Entity: "boost_session", ID: session.ID}
	}
	return nil
}

func (r *boostSessionRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	result, err := r.db.NewDelete().Model((*models.BoostSession)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return r.HandleError("delete", "boost_session", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &NotFoundError{Entity: "boost_session", ID: id}
	}
	return nil
}

func (r *boostSessionRepository) ActiveAt(ctx context.Context, t time.Time) ([]*models.BoostSession, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var sessions []*models.BoostSession
	err := r.db.NewSelect().
		Model(&sessions).
		Where("active = true").
		Where("start_date <= ? AND end_date >= ?", t, t).
		Order("end_date ASC").
		Scan(ctx)
	return sessions, r.HandleError("active_at", "boost_session", err)
}
