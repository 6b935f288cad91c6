package dish

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/sstove-api/internal/access"
	"github.com/redmonkez12/sstove-api/internal/apperr"
	"github.com/redmonkez12/sstove-api/internal/logging"
	"github.com/redmonkez12/sstove-api/internal/metrics"
)

// Service builds and reads dish aggregates. Every write is validated in full
// before the transaction starts and commits as a unit.
type Service struct {
	repo    *Repository
	logger  *logging.Logger
	metrics *metrics.Metrics
}

func NewService(repo *Repository, logger *logging.Logger, m *metrics.Metrics) *Service {
	return &Service{repo: repo, logger: logger, metrics: m}
}

func (s *Service) CreateDish(ctx context.Context, requester uuid.UUID, in CreateDishInput) (*Dish, error) {
	in = normalizeDish(in)
	if err := Validate(in); err != nil {
		return nil, err
	}

	var created *Dish
	err := s.repo.InTx(ctx, func(ctx context.Context, tx *Repository) error {
		dishID, err := tx.CreateDish(ctx, in.Name, in.Description, requester)
		if err != nil {
			if errors.Is(err, ErrDuplicateName) {
				return apperr.Conflict("Dish with name %s already exists", in.Name)
			}
			return err
		}

		for _, t := range in.Timings {
			if _, err := tx.CreateTiming(ctx, dishID, t); err != nil {
				return err
			}
		}

		created, err = tx.GetDish(ctx, dishID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.DishCreated()
	s.logger.Info("dish created", "dish_id", created.ID, "owner", requester, "timings", len(created.Timings))
	return created, nil
}

// ListDishes returns the requester's dishes.
func (s *Service) ListDishes(ctx context.Context, requester uuid.UUID) ([]Dish, error) {
	return s.repo.ListByOwner(ctx, requester)
}

// AddTiming appends a timing to a dish the requester owns. Ownership is
// checked before the input, so non-owners learn nothing about the dish.
func (s *Service) AddTiming(ctx context.Context, dishID int64, requester uuid.UUID, in TimingInput) (*Timing, error) {
	in = normalizeTiming(in)

	var created *Timing
	err := s.repo.InTx(ctx, func(ctx context.Context, tx *Repository) error {
		if err := checkOwner(ctx, tx, dishID, requester); err != nil {
			return err
		}
		if err := ValidateTiming(in); err != nil {
			return err
		}

		var err error
		created, err = tx.CreateTiming(ctx, dishID, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("timing added", "dish_id", dishID, "timing_id", created.ID)
	return created, nil
}

func (s *Service) ListTimings(ctx context.Context, dishID int64, requester uuid.UUID) ([]Timing, error) {
	var timings []Timing
	err := s.repo.InTx(ctx, func(ctx context.Context, tx *Repository) error {
		if err := checkOwner(ctx, tx, dishID, requester); err != nil {
			return err
		}

		var err error
		timings, err = tx.ListTimings(ctx, dishID)
		return err
	})
	return timings, err
}

// CheckOwner fails with Forbidden unless requester owns the dish. A missing
// dish is reported the same way.
func (s *Service) CheckOwner(ctx context.Context, dishID int64, requester uuid.UUID) error {
	return checkOwner(ctx, s.repo, dishID, requester)
}

func checkOwner(ctx context.Context, tx *Repository, dishID int64, requester uuid.UUID) error {
	exists, owners, err := tx.Owners(ctx, dishID)
	if err != nil {
		return err
	}
	snap := access.DishSnapshot{Exists: exists, ID: dishID, Owners: owners}
	return access.DishOwnersOnly(access.Requester{UserID: requester}, snap).Err()
}

func normalizeDish(in CreateDishInput) CreateDishInput {
	in.Name = strings.TrimSpace(in.Name)
	timings := make([]TimingInput, len(in.Timings))
	for i, t := range in.Timings {
		timings[i] = normalizeTiming(t)
	}
	in.Timings = timings
	return in
}

func normalizeTiming(in TimingInput) TimingInput {
	in.Name = strings.TrimSpace(in.Name)
	return in
}
