package access

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/sstove-api/internal/apperr"
)

var (
	chief    = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	cook     = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	stranger = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

func staffedStove() StoveSnapshot {
	return StoveSnapshot{
		Exists:   true,
		ID:       7,
		SerialID: "ABC123",
		Claimed:  true,
		Members: []Member{
			{UserID: chief, IsChief: true},
			{UserID: cook},
		},
	}
}

func emptyStove() StoveSnapshot {
	return StoveSnapshot{Exists: true, ID: 8, SerialID: "ABC123"}
}

func TestStoveExists(t *testing.T) {
	assert.True(t, StoveExists(emptyStove()).Allowed)

	d := StoveExists(StoveSnapshot{})
	assert.False(t, d.Allowed)
	assert.Equal(t, apperr.KindNotFound, d.Kind)
}

func TestChiefsOnly(t *testing.T) {
	tests := []struct {
		name string
		user uuid.UUID
		s    StoveSnapshot
		want apperr.Kind
	}{
		{"chief", chief, staffedStove(), ""},
		{"plain cook", cook, staffedStove(), apperr.KindForbidden},
		{"stranger", stranger, staffedStove(), apperr.KindForbidden},
		{"missing stove", chief, StoveSnapshot{}, apperr.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ChiefsOnly(Requester{UserID: tt.user}, tt.s)
			assert.Equal(t, tt.want == "", d.Allowed)
			assert.Equal(t, tt.want, d.Kind)
		})
	}
}

func TestCooksOnly(t *testing.T) {
	claimedButEmpty := emptyStove()
	claimedButEmpty.Claimed = true

	tests := []struct {
		name     string
		user     uuid.UUID
		s        StoveSnapshot
		method   string
		serial   string
		wantKind apperr.Kind
		wantJoin JoinMode
	}{
		{"read as cook", cook, staffedStove(), http.MethodGet, "", "", JoinNone},
		{"read as chief", chief, staffedStove(), http.MethodGet, "", "", JoinNone},
		{"read as stranger", stranger, staffedStove(), http.MethodGet, "", apperr.KindForbidden, JoinNone},
		{"read missing stove", cook, StoveSnapshot{}, http.MethodGet, "", apperr.KindNotFound, JoinNone},

		{"chief adds", chief, staffedStove(), http.MethodPost, "", "", JoinAdministered},
		{"cook adds", cook, staffedStove(), http.MethodPost, "ABC123", apperr.KindForbidden, JoinNone},
		{"stranger with serial on staffed stove", stranger, staffedStove(), http.MethodPost, "ABC123", apperr.KindForbidden, JoinNone},

		{"first join with serial", stranger, emptyStove(), http.MethodPost, "ABC123", "", JoinSelfClaim},
		{"first join wrong serial", stranger, emptyStove(), http.MethodPost, "XYZ", apperr.KindForbidden, JoinNone},
		{"first join no serial", stranger, emptyStove(), http.MethodPost, "", apperr.KindForbidden, JoinNone},
		{"first join on claimed stove", stranger, claimedButEmpty, http.MethodPost, "ABC123", apperr.KindForbidden, JoinNone},
		{"write missing stove", stranger, StoveSnapshot{}, http.MethodPost, "ABC123", apperr.KindNotFound, JoinNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CooksOnly(Requester{UserID: tt.user}, tt.s, tt.method, tt.serial)
			assert.Equal(t, tt.wantKind == "", d.Allowed)
			assert.Equal(t, tt.wantKind, d.Kind)
			assert.Equal(t, tt.wantJoin, d.Join)
			if !d.Allowed {
				assert.NotEmpty(t, d.Message)
			}
		})
	}
}

func TestCooksOnly_WritesFollowChiefsOnly(t *testing.T) {
	for _, user := range []uuid.UUID{chief, cook, stranger} {
		req := Requester{UserID: user}
		write := CooksOnly(req, staffedStove(), http.MethodPost, "")
		gate := ChiefsOnly(req, staffedStove())

		assert.Equal(t, gate.Allowed, write.Allowed, user.String())
		assert.Equal(t, gate.Kind, write.Kind, user.String())
		assert.Equal(t, gate.Message, write.Message, user.String())
	}
}

func TestDishOwnersOnly(t *testing.T) {
	dish := DishSnapshot{Exists: true, ID: 3, Owners: []uuid.UUID{cook, chief}}

	assert.True(t, DishOwnersOnly(Requester{UserID: cook}, dish).Allowed)

	d := DishOwnersOnly(Requester{UserID: stranger}, dish)
	assert.False(t, d.Allowed)
	assert.Equal(t, apperr.KindForbidden, d.Kind)

	missing := DishOwnersOnly(Requester{UserID: cook}, DishSnapshot{ID: 99})
	assert.Equal(t, apperr.KindForbidden, missing.Kind, "missing dish must not be distinguishable")
}

func TestDecision_Err(t *testing.T) {
	assert.NoError(t, allow().Err())

	err := ChiefsOnly(Requester{UserID: stranger}, staffedStove()).Err()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}
