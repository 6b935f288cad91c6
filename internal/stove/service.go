package stove

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/redmonkez12/sstove-api/internal/access"
	"github.com/redmonkez12/sstove-api/internal/apperr"
	"github.com/redmonkez12/sstove-api/internal/config"
	"github.com/redmonkez12/sstove-api/internal/logging"
	"github.com/redmonkez12/sstove-api/internal/metrics"
)

// Outcomes recorded for chief claims.
const (
	claimOutcomeClaimed  = "claimed"
	claimOutcomeExisting = "already_chief"
	claimOutcomeConflict = "conflict"
	claimOutcomeDenied   = "denied"
)

// Service owns cook membership and the chief role of every stove.
type Service struct {
	repo      *Repository
	logger    *logging.Logger
	metrics   *metrics.Metrics
	claimMode string
	now       func() time.Time
}

func NewService(repo *Repository, logger *logging.Logger, m *metrics.Metrics, claimMode string) *Service {
	if claimMode == "" {
		claimMode = config.ChiefClaimUpgrade
	}
	return &Service{
		repo:      repo,
		logger:    logger,
		metrics:   m,
		claimMode: claimMode,
		now:       time.Now,
	}
}

// Provision registers a stove so users can later join it with its serial id.
func (s *Service) Provision(ctx context.Context, in ProvisionInput) (*Stove, error) {
	in.SerialID = strings.TrimSpace(in.SerialID)
	in.Name = strings.TrimSpace(in.Name)

	fields := map[string]string{}
	switch {
	case in.SerialID == "":
		fields["serial_id"] = "This field is required."
	case utf8.RuneCountInString(in.SerialID) > maxSerialIDLength:
		fields["serial_id"] = fmt.Sprintf("Ensure this field has no more than %d characters.", maxSerialIDLength)
	}
	if utf8.RuneCountInString(in.Name) > maxNameLength {
		fields["name"] = fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength)
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	st, err := s.repo.Create(ctx, in.SerialID, in.Name)
	if err != nil {
		if errors.Is(err, ErrDuplicateSerialID) {
			return nil, apperr.Conflict("Stove with serial id %s already exists", in.SerialID)
		}
		return nil, err
	}

	s.logger.Info("stove provisioned", "stove_id", st.ID, "serial_id", st.SerialID)
	return st, nil
}

// List returns every stove.
func (s *Service) List(ctx context.Context) ([]Stove, error) {
	return s.repo.List(ctx)
}

// ListForUser returns the stoves the requester cooks at.
func (s *Service) ListForUser(ctx context.Context, requester uuid.UUID) ([]Stove, error) {
	return s.repo.ListForUser(ctx, requester)
}

// ListCooks returns the cooks of a stove. Only its cooks may read them.
func (s *Service) ListCooks(ctx context.Context, stoveID int64, requester uuid.UUID) ([]Cook, error) {
	var cooks []Cook
	err := s.repo.InTx(ctx, func(ctx context.Context, tx *Repository) error {
		snap, members, err := loadSnapshot(ctx, tx, stoveID)
		if err != nil {
			return err
		}
		if err := access.CooksOnly(access.Requester{UserID: requester}, snap, http.MethodGet, "").Err(); err != nil {
			return err
		}
		cooks = members
		return nil
	})
	return cooks, err
}

// AddCook adds a non-chief cook. A chief may add any existing user. On a
// stove that nobody has joined, the requester may add themselves by
// presenting the stove's serial id; that join claims the stove for good.
func (s *Service) AddCook(ctx context.Context, stoveID int64, requester uuid.UUID, in AddCookInput) (*Cook, error) {
	var (
		cook *Cook
		join access.JoinMode
	)

	err := s.repo.InTx(ctx, func(ctx context.Context, tx *Repository) error {
		snap, _, err := loadSnapshot(ctx, tx, stoveID)
		if err != nil {
			return err
		}

		decision := access.CooksOnly(access.Requester{UserID: requester}, snap, http.MethodPost, strings.TrimSpace(in.StoveSerialID))
		if err := decision.Err(); err != nil {
			return err
		}
		join = decision.Join

		target := in.NewCookID
		switch join {
		case access.JoinSelfClaim:
			if target == uuid.Nil {
				target = requester
			}
			if target != requester {
				return apperr.Forbidden("User %s can only add themselves to stove %d with its serial id", requester, stoveID)
			}
		case access.JoinAdministered:
			if target == uuid.Nil {
				return apperr.Validation(map[string]string{"new_cook_id": "This field is required."})
			}
		}

		exists, err := tx.Users().Exists(ctx, target)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("User %s does not exist", target)
		}

		if _, ok := snap.Member(target); ok {
			return apperr.Conflict("User %s is already a cook of stove %d", target, stoveID)
		}

		if join == access.JoinSelfClaim {
			won, err := tx.Claim(ctx, stoveID, s.now())
			if err != nil {
				return err
			}
			if !won {
				return apperr.Conflict("Stove %d was already claimed", stoveID)
			}
		}

		cook, err = tx.AddCook(ctx, stoveID, target, false)
		if errors.Is(err, ErrAlreadyCook) {
			return apperr.Conflict("User %s is already a cook of stove %d", target, stoveID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CookAdded(string(join))
	s.logger.Info("cook added", "stove_id", stoveID, "cook_id", cook.ID, "user_id", cook.User.ID, "join", string(join))
	return cook, nil
}

// ClaimChief makes the requester, who must already cook at the stove, its
// chief. It reports whether the role changed; a requester who already is
// the chief gets their row back unchanged.
func (s *Service) ClaimChief(ctx context.Context, stoveID int64, requester uuid.UUID) (*Cook, bool, error) {
	var (
		chief   *Cook
		claimed bool
	)

	err := s.repo.InTx(ctx, func(ctx context.Context, tx *Repository) error {
		snap, members, err := loadSnapshot(ctx, tx, stoveID)
		if err != nil {
			return err
		}
		if err := access.CooksOnly(access.Requester{UserID: requester}, snap, http.MethodGet, "").Err(); err != nil {
			return err
		}

		var own *Cook
		for i := range members {
			m := &members[i]
			if m.User.ID == requester {
				own = m
				continue
			}
			if m.IsChief {
				return apperr.Conflict("Stove %d already has a chief", stoveID)
			}
		}

		if own.IsChief {
			chief = own
			return nil
		}

		switch s.claimMode {
		case config.ChiefClaimInsert:
			if err := tx.DeleteCook(ctx, own.ID); err != nil {
				return err
			}
			chief, err = tx.AddCook(ctx, stoveID, requester, true)
		default:
			if err = tx.PromoteToChief(ctx, own.ID); err == nil {
				chief, err = tx.GetCook(ctx, own.ID)
			}
		}
		if errors.Is(err, ErrChiefTaken) {
			return apperr.Conflict("Stove %d already has a chief", stoveID)
		}
		if err != nil {
			return err
		}

		claimed = true
		return nil
	})

	switch {
	case err == nil && claimed:
		s.metrics.ChiefClaimed(claimOutcomeClaimed)
		s.logger.Info("chief claimed", "stove_id", stoveID, "cook_id", chief.ID, "user_id", requester, "mode", s.claimMode)
	case err == nil:
		s.metrics.ChiefClaimed(claimOutcomeExisting)
	case apperr.Is(err, apperr.KindConflict):
		s.metrics.ChiefClaimed(claimOutcomeConflict)
	case apperr.Is(err, apperr.KindForbidden), apperr.Is(err, apperr.KindNotFound):
		s.metrics.ChiefClaimed(claimOutcomeDenied)
	}
	if err != nil {
		return nil, false, err
	}
	return chief, claimed, nil
}

// GetChief returns the chief of a stove to one of its cooks.
func (s *Service) GetChief(ctx context.Context, stoveID int64, requester uuid.UUID) (*Cook, error) {
	var chief *Cook
	err := s.repo.InTx(ctx, func(ctx context.Context, tx *Repository) error {
		snap, members, err := loadSnapshot(ctx, tx, stoveID)
		if err != nil {
			return err
		}
		if err := access.CooksOnly(access.Requester{UserID: requester}, snap, http.MethodGet, "").Err(); err != nil {
			return err
		}

		for i := range members {
			if members[i].IsChief {
				chief = &members[i]
				return nil
			}
		}
		return apperr.NotFound("Stove %d has no chief", stoveID)
	})
	return chief, err
}

// loadSnapshot reads the stove and its cooks. A missing stove yields a
// snapshot with Exists unset rather than an error.
func loadSnapshot(ctx context.Context, tx *Repository, stoveID int64) (access.StoveSnapshot, []Cook, error) {
	st, err := tx.GetByID(ctx, stoveID)
	if errors.Is(err, ErrNotFound) {
		return access.StoveSnapshot{ID: stoveID}, nil, nil
	}
	if err != nil {
		return access.StoveSnapshot{}, nil, err
	}

	cooks, err := tx.ListCooks(ctx, stoveID)
	if err != nil {
		return access.StoveSnapshot{}, nil, err
	}

	snap := access.StoveSnapshot{
		Exists:   true,
		ID:       st.ID,
		SerialID: st.SerialID,
		Claimed:  st.ClaimedAt != nil,
		Members:  make([]access.Member, 0, len(cooks)),
	}
	for _, c := range cooks {
		snap.Members = append(snap.Members, access.Member{UserID: c.User.ID, IsChief: c.IsChief})
	}
	return snap, cooks, nil
}
