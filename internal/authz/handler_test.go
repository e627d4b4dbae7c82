package authz

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/commonsphere/commonsphere/internal/rbac"
	"github.com/commonsphere/commonsphere/internal/shared"
	_ "github.com/commonsphere/commonsphere/testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDirectory struct {
	programs map[uuid.UUID]Program
	channels map[uuid.UUID]Channel
}

func (f *fakeDirectory) ProgramByID(ctx context.Context, id uuid.UUID) (Program, error) {
	p, ok := f.programs[id]
	if !ok {
		return Program{}, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakeDirectory) ProjectByID(ctx context.Context, id uuid.UUID) (Project, error) {
	return Project{}, shared.ErrNotFound
}

func (f *fakeDirectory) ChannelByID(ctx context.Context, id uuid.UUID) (Channel, error) {
	ch, ok := f.channels[id]
	if !ok {
		return Channel{}, shared.ErrNotFound
	}
	return ch, nil
}

func (f *fakeDirectory) EventByID(ctx context.Context, id uuid.UUID) (Event, error) {
	return Event{}, shared.ErrNotFound
}

func (f *fakeDirectory) LibraryItemByID(ctx context.Context, id uuid.UUID) (LibraryItem, error) {
	return LibraryItem{}, shared.ErrNotFound
}

type fakeCatalog struct {
	perms []string
}

func (f *fakeCatalog) EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return f.perms, nil
}

type handlerFixture struct {
	router   chi.Router
	sessions *shared.SessionManager
	fx       engineFixture
	dir      *fakeDirectory
}

func newHandlerFixture(t *testing.T) handlerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)

	fx := newEngineFixture()
	dir := &fakeDirectory{programs: map[uuid.UUID]Program{}, channels: map[uuid.UUID]Channel{}}
	handler := NewHandler(HandlerDeps{
		Logger:    discardLogger(),
		Engine:    fx.engine,
		Directory: dir,
		Catalog:   &fakeCatalog{perms: []string{shared.PermViewProgram}},
		Cache:     NewVerdictCache(nil, 0),
		Access:    rbac.Middleware{},
	})

	router := chi.NewRouter()
	router.Route("/authz", handler.MountRoutes)
	return handlerFixture{router: router, sessions: sessions, fx: fx, dir: dir}
}

func (h handlerFixture) do(t *testing.T, method, target, body string, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	sess, err := h.sessions.Load(context.Background(), req)
	require.NoError(t, err)
	if userID != uuid.Nil {
		sess.SetUser(userID.String())
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	h.router.ServeHTTP(res, req)
	return res
}

func TestCheckRequiresSession(t *testing.T) {
	h := newHandlerFixture(t)
	res := h.do(t, http.MethodPost, "/authz/check", `{"resource_type":"program","action":"create"}`, uuid.Nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestCheckProgramView(t *testing.T) {
	h := newHandlerFixture(t)
	userID := uuid.New()
	programID := uuid.New()
	h.dir.programs[programID] = Program{ID: programID, IsPublic: true}
	h.fx.perms.names[shared.PermViewProgram] = true

	res := h.do(t, http.MethodPost, "/authz/check",
		`{"resource_type":"program","resource_id":"`+programID.String()+`","action":"view"}`, userID)
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"allowed":true}`, res.Body.String())
}

func TestCheckMissingResourceDenies(t *testing.T) {
	h := newHandlerFixture(t)
	h.fx.perms.names[shared.PermViewProgram] = true

	res := h.do(t, http.MethodPost, "/authz/check",
		`{"resource_type":"program","resource_id":"`+uuid.NewString()+`","action":"view"}`, uuid.New())
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"allowed":false}`, res.Body.String())
}

func TestCheckUnknownActionRejected(t *testing.T) {
	h := newHandlerFixture(t)
	programID := uuid.New()
	h.dir.programs[programID] = Program{ID: programID}

	res := h.do(t, http.MethodPost, "/authz/check",
		`{"resource_type":"program","resource_id":"`+programID.String()+`","action":"annex"}`, uuid.New())
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCheckUnknownResourceTypeRejected(t *testing.T) {
	h := newHandlerFixture(t)
	res := h.do(t, http.MethodPost, "/authz/check",
		`{"resource_type":"spaceship","action":"view"}`, uuid.New())
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestGrantRequiresAdmin(t *testing.T) {
	h := newHandlerFixture(t)
	res := h.do(t, http.MethodPost, "/authz/grants",
		`{"resource_type":"program","resource_id":"`+uuid.NewString()+`","user_id":"`+uuid.NewString()+`","permission":"view_program"}`, uuid.Nil)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestEffectivePermissionsEndpoint(t *testing.T) {
	h := newHandlerFixture(t)
	res := h.do(t, http.MethodGet, "/authz/permissions", "", uuid.New())
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), shared.PermViewProgram)
}
