package dish_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/sstove-api/internal/auth"
	"github.com/redmonkez12/sstove-api/internal/dish"
	"github.com/redmonkez12/sstove-api/internal/user"
)

func newRouter(t *testing.T, f *fixture) (http.Handler, func(uuid.UUID) string) {
	t.Helper()
	tokens, err := auth.NewPasetoService([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.With(auth.NewMiddleware(tokens, user.NewRepository(f.db)).RequireAuth).Route("/dishes", dish.NewHandler(f.service).Routes)

	bearer := func(id uuid.UUID) string {
		token, err := tokens.CreateToken(id, "cook@example.com", time.Hour)
		require.NoError(t, err)
		return "Bearer " + token
	}
	return r, bearer
}

func send(t *testing.T, h http.Handler, method, path, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", authz)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_DishFlow(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	stranger := f.user(t, "stranger@example.com")
	h, bearer := newRouter(t, f)

	rec := send(t, h, http.MethodPost, "/dishes", bearer(owner), map[string]any{
		"name":        "Omelette",
		"description": "three eggs",
		"timings": []map[string]any{
			{"name": "heat", "atomic_timings": []map[string]int{{"seconds": 60, "power": 100}}},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created dish.Dish
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.Timings, 1)
	assert.Equal(t, []dish.AtomicTiming{{Seconds: 60, Power: 100}}, created.Timings[0].AtomicTimings)

	timingsPath := "/dishes/" + strconv.FormatInt(created.ID, 10) + "/timings"

	rec = send(t, h, http.MethodPost, timingsPath, bearer(owner), dish.TimingInput{Name: "fold", AtomicTimings: []dish.AtomicTiming{{Seconds: 30, Power: 50}}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = send(t, h, http.MethodGet, timingsPath, bearer(owner), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var timings []dish.Timing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timings))
	require.Len(t, timings, 2)
	assert.Equal(t, "fold", timings[0].Name)
	assert.Equal(t, "heat", timings[1].Name)

	rec = send(t, h, http.MethodGet, timingsPath, bearer(stranger), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(t, h, http.MethodPost, "/dishes", bearer(owner), map[string]any{
		"name":    "Bad",
		"timings": []map[string]any{{"name": "x", "atomic_timings": []map[string]int{{"seconds": 1, "power": 50}}}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var errResp struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "validation_error", errResp.Code)
	assert.Contains(t, errResp.Fields, "timings[0].atomic_timings[0].seconds")

	rec = send(t, h, http.MethodGet, "/dishes", bearer(owner), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dishes []dish.Dish
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dishes))
	require.Len(t, dishes, 1)
	assert.Len(t, dishes[0].Timings, 2)

	rec = send(t, h, http.MethodGet, "/dishes/abc/timings", bearer(owner), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_AddTimingGatesBeforeBody(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	stranger := f.user(t, "stranger@example.com")
	h, bearer := newRouter(t, f)

	created, err := f.service.CreateDish(context.Background(), owner, dish.CreateDishInput{
		Name:    "Porridge",
		Timings: []dish.TimingInput{{Name: "boil", AtomicTimings: []dish.AtomicTiming{{Seconds: 60, Power: 80}}}},
	})
	require.NoError(t, err)
	ownPath := "/dishes/" + strconv.FormatInt(created.ID, 10) + "/timings"

	tests := []struct {
		name   string
		path   string
		as     uuid.UUID
		status int
		code   string
	}{
		{"stranger on missing dish", "/dishes/999/timings", stranger, http.StatusForbidden, "forbidden"},
		{"stranger on foreign dish", ownPath, stranger, http.StatusForbidden, "forbidden"},
		{"owner", ownPath, owner, http.StatusBadRequest, "invalid_request_body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader("{not json"))
			req.Header.Set("Authorization", bearer(tt.as))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp["code"])
		})
	}
}
