// Package access decides whether a requester may act on a stove or a dish.
//
// Every predicate is a pure function of a snapshot that the caller loaded
// inside its own transaction; nothing here touches storage. A denied
// Decision carries the apperr kind to surface: NotFound for a missing
// resource, Forbidden for everything else.
package access

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/redmonkez12/sstove-api/internal/apperr"
)

// JoinMode says how an allowed cook creation was authorised.
type JoinMode string

const (
	JoinNone JoinMode = ""
	// JoinAdministered is a chief adding a user to their stove.
	JoinAdministered JoinMode = "administered"
	// JoinSelfClaim is the first user of an empty stove proving possession
	// of the device with its serial id.
	JoinSelfClaim JoinMode = "self_claim"
)

// Requester is the authenticated caller.
type Requester struct {
	UserID uuid.UUID
}

// Member is one cook of a stove as seen by the gate.
type Member struct {
	UserID  uuid.UUID
	IsChief bool
}

// StoveSnapshot is the state of a stove relevant to authorisation.
type StoveSnapshot struct {
	Exists   bool
	ID       int64
	SerialID string
	Claimed  bool
	Members  []Member
}

// Member returns the requester's membership, if any.
func (s StoveSnapshot) Member(userID uuid.UUID) (Member, bool) {
	for _, m := range s.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// DishSnapshot is the state of a dish relevant to authorisation.
type DishSnapshot struct {
	Exists bool
	ID     int64
	Owners []uuid.UUID
}

type Decision struct {
	Allowed bool
	Kind    apperr.Kind
	Message string
	Join    JoinMode
}

// Err converts a denial into an *apperr.Error and returns nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &apperr.Error{Kind: d.Kind, Message: d.Message}
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(kind apperr.Kind, format string, args ...any) Decision {
	return Decision{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func StoveExists(s StoveSnapshot) Decision {
	if !s.Exists {
		return deny(apperr.KindNotFound, "Invalid stove id was provided")
	}
	return allow()
}

// ChiefsOnly allows only the chief of the stove.
func ChiefsOnly(req Requester, s StoveSnapshot) Decision {
	if d := StoveExists(s); !d.Allowed {
		return d
	}

	m, ok := s.Member(req.UserID)
	if !ok {
		return deny(apperr.KindForbidden, "User %s is not a cook of stove %d", req.UserID, s.ID)
	}
	if !m.IsChief {
		return deny(apperr.KindForbidden, "User access denied. User %s has no chief permission for a stove %d", req.UserID, s.ID)
	}
	return allow()
}

// CooksOnly gates the cook collection of a stove. Reads require membership.
// Writes are allowed for the chief (administered join) or, on a stove with
// no cooks that was never claimed, for a caller presenting the stove's
// serial id (self-claim join).
func CooksOnly(req Requester, s StoveSnapshot, method, serialID string) Decision {
	if d := StoveExists(s); !d.Allowed {
		return d
	}

	if method != http.MethodPost {
		if _, ok := s.Member(req.UserID); !ok {
			return deny(apperr.KindForbidden, "User %s is not a cook of stove %d", req.UserID, s.ID)
		}
		return allow()
	}

	chief := ChiefsOnly(req, s)
	if chief.Allowed {
		chief.Join = JoinAdministered
		return chief
	}

	if len(s.Members) == 0 && !s.Claimed {
		if serialID == "" || serialID != s.SerialID {
			return deny(apperr.KindForbidden, "Invalid stove serial id was provided for stove %d", s.ID)
		}
		return Decision{Allowed: true, Join: JoinSelfClaim}
	}

	return chief
}

// DishOwnersOnly allows only owners of the dish. A missing dish is reported
// as Forbidden so callers cannot probe which dish ids exist.
func DishOwnersOnly(req Requester, d DishSnapshot) Decision {
	if d.Exists {
		for _, owner := range d.Owners {
			if owner == req.UserID {
				return allow()
			}
		}
	}
	return deny(apperr.KindForbidden, "User %s is not an owner of dish %d", req.UserID, d.ID)
}
