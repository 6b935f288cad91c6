package dish

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/sstove-api/internal/database"
)

var (
	ErrNotFound      = errors.New("dish not found")
	ErrDuplicateName = errors.New("dish name already exists")
)

// Repository handles dish aggregate persistence
type Repository struct {
	db  bun.IDB
	now func() time.Time
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// InTx runs fn with a repository bound to a single transaction.
func (r *Repository) InTx(ctx context.Context, fn func(ctx context.Context, tx *Repository) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Repository{db: tx, now: r.now})
	})
}

// CreateDish inserts the dish row and its first owner
func (r *Repository) CreateDish(ctx context.Context, name, description string, owner uuid.UUID) (int64, error) {
	dbDish := &database.Dish{
		Name:        name,
		Description: description,
		CreatedAt:   r.now(),
	}

	_, err := r.db.NewInsert().
		Model(dbDish).
		Returning("id").
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, ErrDuplicateName
		}
		return 0, fmt.Errorf("failed to create dish: %w", err)
	}

	_, err = r.db.NewInsert().
		Model(&database.DishOwner{DishID: dbDish.ID, UserID: owner}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to add dish owner: %w", err)
	}

	return dbDish.ID, nil
}

// CreateTiming inserts a timing and its steps in input order
func (r *Repository) CreateTiming(ctx context.Context, dishID int64, in TimingInput) (*Timing, error) {
	now := r.now()
	dbTiming := &database.Timing{
		DishID:    dishID,
		Name:      in.Name,
		CreatedAt: now,
	}

	_, err := r.db.NewInsert().
		Model(dbTiming).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create timing: %w", err)
	}

	if len(in.AtomicTimings) > 0 {
		rows := make([]database.AtomicTiming, 0, len(in.AtomicTimings))
		for _, at := range in.AtomicTimings {
			rows = append(rows, database.AtomicTiming{
				TimingID:  dbTiming.ID,
				Seconds:   at.Seconds,
				Power:     at.Power,
				CreatedAt: now,
			})
		}

		if _, err := r.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to create atomic timings: %w", err)
		}
	}

	steps := make([]AtomicTiming, len(in.AtomicTimings))
	copy(steps, in.AtomicTimings)
	return &Timing{ID: dbTiming.ID, Name: dbTiming.Name, AtomicTimings: steps}, nil
}

// Owners reports whether the dish exists and who owns it
func (r *Repository) Owners(ctx context.Context, dishID int64) (bool, []uuid.UUID, error) {
	exists, err := r.db.NewSelect().
		Model((*database.Dish)(nil)).
		Where("id = ?", dishID).
		Exists(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("failed to check dish existence: %w", err)
	}
	if !exists {
		return false, nil, nil
	}

	var owners []uuid.UUID
	err = r.db.NewSelect().
		Model((*database.DishOwner)(nil)).
		Column("user_id").
		Where("dish_id = ?", dishID).
		Scan(ctx, &owners)
	if err != nil {
		return false, nil, fmt.Errorf("failed to list dish owners: %w", err)
	}

	return true, owners, nil
}

// GetDish loads one dish aggregate
func (r *Repository) GetDish(ctx context.Context, dishID int64) (*Dish, error) {
	dbDish := new(database.Dish)
	err := r.db.NewSelect().
		Model(dbDish).
		Where("id = ?", dishID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dish: %w", err)
	}

	dishes, err := r.assemble(ctx, []database.Dish{*dbDish})
	if err != nil {
		return nil, err
	}
	return &dishes[0], nil
}

// ListByOwner returns the user's dishes ordered by name, with timings
func (r *Repository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]Dish, error) {
	var rows []database.Dish
	err := r.db.NewSelect().
		Model(&rows).
		Join("JOIN dish_owners AS own ON own.dish_id = d.id").
		Where("own.user_id = ?", userID).
		Order("d.name ASC", "d.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}

	return r.assemble(ctx, rows)
}

// ListTimings returns the timings of a dish ordered by name, each with its
// steps in creation order
func (r *Repository) ListTimings(ctx context.Context, dishID int64) ([]Timing, error) {
	byDish, err := r.timings(ctx, []int64{dishID})
	if err != nil {
		return nil, err
	}
	if t := byDish[dishID]; t != nil {
		return t, nil
	}
	return []Timing{}, nil
}

func (r *Repository) assemble(ctx context.Context, rows []database.Dish) ([]Dish, error) {
	dishes := make([]Dish, 0, len(rows))
	if len(rows) == 0 {
		return dishes, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	byDish, err := r.timings(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		d := Dish{ID: row.ID, Name: row.Name, Description: row.Description, Timings: byDish[row.ID]}
		if d.Timings == nil {
			d.Timings = []Timing{}
		}
		dishes = append(dishes, d)
	}
	return dishes, nil
}

// timings loads the timings of several dishes in two queries.
func (r *Repository) timings(ctx context.Context, dishIDs []int64) (map[int64][]Timing, error) {
	var timingRows []database.Timing
	err := r.db.NewSelect().
		Model(&timingRows).
		Where("t.dish_id IN (?)", bun.In(dishIDs)).
		Order("t.name ASC", "t.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list timings: %w", err)
	}

	result := make(map[int64][]Timing, len(dishIDs))
	if len(timingRows) == 0 {
		return result, nil
	}

	timingIDs := make([]int64, 0, len(timingRows))
	for _, t := range timingRows {
		timingIDs = append(timingIDs, t.ID)
	}

	var stepRows []database.AtomicTiming
	err = r.db.NewSelect().
		Model(&stepRows).
		Where("atm.timing_id IN (?)", bun.In(timingIDs)).
		Order("atm.created_at ASC", "atm.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list atomic timings: %w", err)
	}

	steps := make(map[int64][]AtomicTiming, len(timingRows))
	for _, s := range stepRows {
		steps[s.TimingID] = append(steps[s.TimingID], AtomicTiming{Seconds: s.Seconds, Power: s.Power})
	}

	for _, t := range timingRows {
		timing := Timing{ID: t.ID, Name: t.Name, AtomicTimings: steps[t.ID]}
		if timing.AtomicTimings == nil {
			timing.AtomicTimings = []AtomicTiming{}
		}
		result[t.DishID] = append(result[t.DishID], timing)
	}
	return result, nil
}
