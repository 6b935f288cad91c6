package stove

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/sstove-api/internal/database"
	"github.com/redmonkez12/sstove-api/internal/user"
)

var (
	ErrNotFound          = errors.New("stove not found")
	ErrCookNotFound      = errors.New("cook not found")
	ErrDuplicateSerialID = errors.New("stove serial id already exists")
	ErrAlreadyCook       = errors.New("user is already a cook of this stove")
	ErrChiefTaken        = errors.New("stove already has a chief")
)

// Repository handles stove and cook persistence
type Repository struct {
	db bun.IDB
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// InTx runs fn with a repository bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, tx *Repository) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, NewRepository(tx))
	})
}

// Users returns a user repository sharing this repository's connection or
// transaction.
func (r *Repository) Users() *user.Repository {
	return user.NewRepository(r.db)
}

// Create inserts a stove that no one has joined yet
func (r *Repository) Create(ctx context.Context, serialID, name string) (*Stove, error) {
	dbStove := &database.Stove{
		SerialID:  serialID,
		Name:      name,
		CreatedAt: time.Now(),
	}

	_, err := r.db.NewInsert().
		Model(dbStove).
		Returning("id").
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateSerialID
		}
		return nil, fmt.Errorf("failed to create stove: %w", err)
	}

	return mapDBStoveToModel(dbStove), nil
}

// GetByID retrieves a stove by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Stove, error) {
	dbStove := new(database.Stove)
	err := r.db.NewSelect().
		Model(dbStove).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get stove: %w", err)
	}

	return mapDBStoveToModel(dbStove), nil
}

// List returns every stove ordered by id
func (r *Repository) List(ctx context.Context) ([]Stove, error) {
	var rows []database.Stove
	if err := r.db.NewSelect().Model(&rows).Order("s.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list stoves: %w", err)
	}
	return mapDBStoves(rows), nil
}

// ListForUser returns the stoves the user cooks at
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Stove, error) {
	var rows []database.Stove
	err := r.db.NewSelect().
		Model(&rows).
		Join("JOIN cooks AS c ON c.stove_id = s.id").
		Where("c.user_id = ?", userID).
		Order("s.id ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list stoves for user: %w", err)
	}
	return mapDBStoves(rows), nil
}

// Claim stamps claimed_at unless the stove was already claimed. It reports
// whether this call won the claim.
func (r *Repository) Claim(ctx context.Context, stoveID int64, at time.Time) (bool, error) {
	res, err := r.db.NewUpdate().
		Model((*database.Stove)(nil)).
		Set("claimed_at = ?", at).
		Where("id = ?", stoveID).
		Where("claimed_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to claim stove: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim stove: %w", err)
	}
	return n == 1, nil
}

// ListCooks returns the cooks of a stove with their users, ordered by id
func (r *Repository) ListCooks(ctx context.Context, stoveID int64) ([]Cook, error) {
	var rows []database.Cook
	err := r.db.NewSelect().
		Model(&rows).
		Relation("User").
		Where("c.stove_id = ?", stoveID).
		Order("c.id ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list cooks: %w", err)
	}

	cooks := make([]Cook, 0, len(rows))
	for i := range rows {
		cooks = append(cooks, *mapDBCookToModel(&rows[i]))
	}
	return cooks, nil
}

// GetCook retrieves a cook with its user
func (r *Repository) GetCook(ctx context.Context, cookID int64) (*Cook, error) {
	dbCook := new(database.Cook)
	err := r.db.NewSelect().
		Model(dbCook).
		Relation("User").
		Where("c.id = ?", cookID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCookNotFound
		}
		return nil, fmt.Errorf("failed to get cook: %w", err)
	}

	return mapDBCookToModel(dbCook), nil
}

// AddCook inserts a membership row. Unique violations map to ErrChiefTaken
// for chief rows and ErrAlreadyCook otherwise.
func (r *Repository) AddCook(ctx context.Context, stoveID int64, userID uuid.UUID, isChief bool) (*Cook, error) {
	dbCook := &database.Cook{
		UserID:    userID,
		StoveID:   stoveID,
		IsChief:   isChief,
		CreatedAt: time.Now(),
	}

	_, err := r.db.NewInsert().
		Model(dbCook).
		Returning("id").
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err) {
			if isChief {
				return nil, ErrChiefTaken
			}
			return nil, ErrAlreadyCook
		}
		return nil, fmt.Errorf("failed to add cook: %w", err)
	}

	return r.GetCook(ctx, dbCook.ID)
}

// PromoteToChief flips is_chief on an existing membership
func (r *Repository) PromoteToChief(ctx context.Context, cookID int64) error {
	res, err := r.db.NewUpdate().
		Model((*database.Cook)(nil)).
		Set("is_chief = ?", true).
		Where("id = ?", cookID).
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrChiefTaken
		}
		return fmt.Errorf("failed to promote cook: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrCookNotFound
	}
	return nil
}

// DeleteCook removes a membership row
func (r *Repository) DeleteCook(ctx context.Context, cookID int64) error {
	_, err := r.db.NewDelete().
		Model((*database.Cook)(nil)).
		Where("id = ?", cookID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete cook: %w", err)
	}
	return nil
}

func mapDBStoveToModel(dbs *database.Stove) *Stove {
	return &Stove{
		ID:        dbs.ID,
		SerialID:  dbs.SerialID,
		Name:      dbs.Name,
		ClaimedAt: dbs.ClaimedAt,
		CreatedAt: dbs.CreatedAt,
	}
}

func mapDBStoves(rows []database.Stove) []Stove {
	stoves := make([]Stove, 0, len(rows))
	for i := range rows {
		stoves = append(stoves, *mapDBStoveToModel(&rows[i]))
	}
	return stoves
}

func mapDBCookToModel(dbc *database.Cook) *Cook {
	c := &Cook{
		ID:      dbc.ID,
		StoveID: dbc.StoveID,
		IsChief: dbc.IsChief,
		User:    CookUser{ID: dbc.UserID},
	}
	if dbc.User != nil {
		c.User.Email = dbc.User.Email
		c.User.FirstName = dbc.User.FirstName
		c.User.LastName = dbc.User.LastName
	}
	return c
}
