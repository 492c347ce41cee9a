package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"speedrun/backend/internal/config"
	"speedrun/backend/internal/database/dbtest"
	"speedrun/backend/internal/handler"
	"speedrun/backend/internal/hub"
	"speedrun/backend/internal/models"
	"speedrun/backend/internal/upload"
	"speedrun/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          testSecret,
		JWTExpiration:      time.Hour,
		SessionSecret:      "test-session-secret",
		CORSAllowedOrigins: "*",
		UploadURLPrefix:    "/uploads",
	}
}

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	issuer *jwt.Issuer
	hub    *hub.Hub

	runner, rival, admin models.User
	sm64, celeste        models.Game
	jp, v14              models.GameVersion
	any, hundred, any2   models.Category
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.Open(t)
	events := hub.New()
	router, err := New(Deps{Config: testConfig(), DB: db, Hub: events})
	require.NoError(t, err)

	e := &testEnv{t: t, db: db, router: router, issuer: jwt.NewIssuer(testSecret, time.Hour), hub: events}
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	e.runner = models.User{Username: "runner", Email: "runner@example.com", PasswordHash: string(hash), Role: models.RoleUser}
	e.rival = models.User{Username: "rival", Email: "rival@example.com", PasswordHash: string(hash), Role: models.RoleUser}
	e.admin = models.User{Username: "mod", Email: "mod@example.com", PasswordHash: string(hash), Role: models.RoleAdmin}
	for _, u := range []*models.User{&e.runner, &e.rival, &e.admin} {
		require.NoError(t, db.Create(u).Error)
	}

	e.sm64 = models.Game{Name: "Super Mario 64", Slug: "super-mario-64"}
	e.celeste = models.Game{Name: "Celeste", Slug: "celeste"}
	require.NoError(t, db.Create(&e.sm64).Error)
	require.NoError(t, db.Create(&e.celeste).Error)

	e.jp = models.GameVersion{GameID: e.sm64.ID, Name: "N64 JP"}
	e.v14 = models.GameVersion{GameID: e.celeste.ID, Name: "1.4"}
	require.NoError(t, db.Create(&e.jp).Error)
	require.NoError(t, db.Create(&e.v14).Error)

	e.any = models.Category{GameID: e.sm64.ID, Name: "Any%"}
	e.hundred = models.Category{GameID: e.sm64.ID, Name: "120 Star"}
	e.any2 = models.Category{GameID: e.celeste.ID, Name: "Any%"}
	for _, c := range []*models.Category{&e.any, &e.hundred, &e.any2} {
		require.NoError(t, db.Create(c).Error)
	}
	return e
}

func (e *testEnv) token(u models.User) string {
	e.t.Helper()
	tok, err := e.issuer.GenerateToken(u.ID, u.Role)
	require.NoError(e.t, err)
	return tok
}

func (e *testEnv) record(u models.User, g models.Game, v models.GameVersion, ms int64, status models.RecordStatus) models.Record {
	e.t.Helper()
	r := models.Record{UserID: u.ID, GameID: g.ID, VersionID: v.ID, TimeMs: ms, Status: status}
	require.NoError(e.t, e.db.Create(&r).Error)
	return r
}

// do sends body as JSON, authenticated with token when it is not empty.
func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPing(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "newbie", "email": "newbie@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode[handler.TokenResponse](t, w)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "newbie", reg.User.Username)
	assert.Equal(t, models.RoleUser, reg.User.Role)

	claims, err := e.issuer.Parse(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	w = e.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "newbie", "email": "other@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "newbie@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "newbie", decode[handler.TokenResponse](t, w).User.Username)

	w = e.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "newbie", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "nobody", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidationErrorsListEveryField(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "ab", "email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[handler.ValidationErrorResponse](t, w)
	fields := map[string]string{}
	for _, fe := range resp.Errors {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, map[string]string{
		"username": "must be at least 3 characters",
		"email":    "must be a valid email address",
		"password": "is required",
	}, fields)

	w = e.do(http.MethodPost, "/api/v1/records", e.token(e.runner), gin.H{"game_id": e.sm64.ID, "version_id": e.jp.ID, "time": "1:2"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp = decode[handler.ValidationErrorResponse](t, w)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, handler.FieldError{Field: "time", Message: "must be formatted as HH:MM:SS"}, resp.Errors[0])
}

func TestCreateRecord(t *testing.T) {
	e := newTestEnv(t)
	token := e.token(e.runner)

	w := e.do(http.MethodPost, "/api/v1/records", "", gin.H{"game_id": e.sm64.ID, "version_id": e.jp.ID, "time": "01:39:28"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/v1/records", token, gin.H{"game_id": e.sm64.ID, "version_id": e.v14.ID, "time": "01:39:28"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[handler.ErrorResponse](t, w).Message, "does not belong")

	w = e.do(http.MethodPost, "/api/v1/records", token, gin.H{"game_id": 999, "version_id": e.jp.ID, "time": "01:39:28"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/v1/records", token, gin.H{
		"game_id": e.sm64.ID, "version_id": e.jp.ID, "time": "01:39:28.5", "video_url": "https://youtu.be/abc",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[handler.RecordResponse](t, w)
	assert.Equal(t, e.runner.ID, rec.UserID)
	assert.Equal(t, "runner", rec.Username)
	assert.Equal(t, "Super Mario 64", rec.GameName)
	assert.Equal(t, "N64 JP", rec.VersionName)
	assert.Equal(t, "01:39:28.500", rec.Time)
	assert.Equal(t, int64(5968500), rec.TimeMs)
	assert.Equal(t, string(models.StatusPending), rec.Status)
	assert.Equal(t, []string{}, rec.Categories)
}

func TestUpdateRecord(t *testing.T) {
	e := newTestEnv(t)
	r := e.record(e.runner, e.sm64, e.jp, 6000, models.StatusPending)
	path := fmt.Sprintf("/api/v1/records/%d", r.ID)

	w := e.do(http.MethodPut, path, e.token(e.runner), gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPut, path, e.token(e.rival), gin.H{"notes": "mine now"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPut, path, e.token(e.runner), gin.H{"status": "Approved"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPut, path, e.token(e.runner), gin.H{"version_id": e.v14.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPut, path, e.token(e.runner), gin.H{"time": "00:00:05", "notes": "retimed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec := decode[handler.RecordResponse](t, w)
	assert.Equal(t, int64(5000), rec.TimeMs)
	assert.Equal(t, "retimed", rec.Notes)

	w = e.do(http.MethodPut, "/api/v1/records/999", e.token(e.admin), gin.H{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOwnerEditSendsRunBackToModeration(t *testing.T) {
	e := newTestEnv(t)
	r := e.record(e.runner, e.sm64, e.jp, 600000, models.StatusApproved)
	path := fmt.Sprintf("/api/v1/records/%d", r.ID)
	board := fmt.Sprintf("/api/v1/games/%d/leaderboard?status=Approved", e.sm64.ID)

	w := e.do(http.MethodPut, path, e.token(e.runner), gin.H{"notes": "splits in description"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(models.StatusApproved), decode[handler.RecordResponse](t, w).Status)

	w = e.do(http.MethodPut, path, e.token(e.runner), gin.H{"time": "00:00:01", "video_url": "https://example.com/other"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rec := decode[handler.RecordResponse](t, w)
	assert.Equal(t, int64(1000), rec.TimeMs)
	assert.Equal(t, string(models.StatusPending), rec.Status)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, board, "", nil).Code)

	w = e.do(http.MethodPost, path+"/approve", e.token(e.admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodPut, path, e.token(e.admin), gin.H{"time": "00:00:02"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(models.StatusApproved), decode[handler.RecordResponse](t, w).Status)
}

func TestCreateRecordWithCategories(t *testing.T) {
	e := newTestEnv(t)
	token := e.token(e.runner)

	w := e.do(http.MethodPost, "/api/v1/records", token, gin.H{
		"game_id": e.sm64.ID, "version_id": e.jp.ID, "time": "01:39:28", "category_ids": []uint{e.any.ID, e.any2.ID},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[handler.ErrorResponse](t, w).Message, "belong to different games")
	var n int64
	require.NoError(t, e.db.Model(&models.Record{}).Count(&n).Error)
	assert.Zero(t, n)

	w = e.do(http.MethodPost, "/api/v1/records", token, gin.H{
		"game_id": e.sm64.ID, "version_id": e.jp.ID, "time": "01:39:28", "category_ids": []uint{e.hundred.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []string{"120 Star"}, decode[handler.RecordResponse](t, w).Categories)
}

func TestFailedSubmissionDiscardsProof(t *testing.T) {
	e := newTestEnv(t)
	dir := t.TempDir()
	store, err := upload.NewStore(dir, "/uploads")
	require.NoError(t, err)
	router, err := New(Deps{Config: testConfig(), DB: e.db, Hub: e.hub, Uploads: store})
	require.NoError(t, err)

	submit := func(versionID uint) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("game_id", fmt.Sprint(e.sm64.ID)))
		require.NoError(t, mw.WriteField("version_id", fmt.Sprint(versionID)))
		require.NoError(t, mw.WriteField("time", "01:39:28"))
		part, err := mw.CreateFormFile("proof", "proof.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/records", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+e.token(e.runner))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := submit(e.v14.ID)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "proof of a rejected run is removed")

	w = submit(e.jp.ID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(decode[handler.RecordResponse](t, w).VideoURL, "/uploads/"))
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestModeration(t *testing.T) {
	e := newTestEnv(t)
	r := e.record(e.runner, e.sm64, e.jp, 6000, models.StatusPending)
	approve := fmt.Sprintf("/api/v1/records/%d/approve", r.ID)

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, approve, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, approve, e.token(e.runner), nil).Code)

	w := e.do(http.MethodPost, approve, e.token(e.admin), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(models.StatusApproved), decode[handler.RecordResponse](t, w).Status)

	w = e.do(http.MethodPost, fmt.Sprintf("/api/v1/records/%d/reject", r.ID), e.token(e.admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.StatusRejected), decode[handler.RecordResponse](t, w).Status)

	w = e.do(http.MethodPost, "/api/v1/records/999/approve", e.token(e.admin), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeaderboard(t *testing.T) {
	e := newTestEnv(t)
	slow := e.record(e.runner, e.sm64, e.jp, 9000, models.StatusApproved)
	first := e.record(e.rival, e.sm64, e.jp, 5000, models.StatusApproved)
	tied := e.record(e.runner, e.sm64, e.jp, 5000, models.StatusApproved)
	pending := e.record(e.rival, e.sm64, e.jp, 1000, models.StatusPending)
	require.NoError(t, e.db.Create(&models.RecordCategory{RecordID: slow.ID, CategoryID: e.hundred.ID}).Error)

	ids := func(rows []handler.RecordResponse) []uint {
		out := make([]uint, len(rows))
		for i, r := range rows {
			out[i] = r.ID
		}
		return out
	}

	w := e.do(http.MethodGet, fmt.Sprintf("/api/v1/games/%d/leaderboard", e.sm64.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]handler.RecordResponse](t, w)
	assert.Equal(t, []uint{pending.ID, first.ID, tied.ID, slow.ID}, ids(rows))
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 4, rows[3].Rank)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/v1/games/%d/leaderboard?status=approved", e.sm64.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint{first.ID, tied.ID, slow.ID}, ids(decode[[]handler.RecordResponse](t, w)))

	w = e.do(http.MethodGet, fmt.Sprintf("/api/v1/records/%d/filter?categoryId=%d", e.sm64.ID, e.hundred.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows = decode[[]handler.RecordResponse](t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, slow.ID, rows[0].ID)
	assert.Equal(t, []string{"120 Star"}, rows[0].Categories)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/v1/games/%d/leaderboard", e.celeste.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/v1/games/%d/leaderboard?status=Finished", e.sm64.ID), "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(http.MethodGet, fmt.Sprintf("/api/v1/games/%d/leaderboard?versionId=abc", e.sm64.ID), "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordCategoryLinks(t *testing.T) {
	e := newTestEnv(t)
	r := e.record(e.runner, e.sm64, e.jp, 6000, models.StatusPending)
	token := e.token(e.runner)

	w := e.do(http.MethodPost, "/api/v1/recordcategories", token, gin.H{"record_id": r.ID, "category_id": e.any2.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/v1/recordcategories", e.token(e.rival), gin.H{"record_id": r.ID, "category_id": e.any.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/v1/recordcategories", token, gin.H{"record_id": r.ID, "category_id": e.any.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	link := decode[models.RecordCategoryView](t, w)
	assert.Equal(t, "Any%", link.CategoryName)

	w = e.do(http.MethodPost, "/api/v1/recordcategories", token, gin.H{"record_id": r.ID, "category_id": e.any.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPut, fmt.Sprintf("/api/v1/recordcategories/%d", link.ID), token, gin.H{"category_id": e.hundred.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "120 Star", decode[models.RecordCategoryView](t, w).CategoryName)

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/v1/recordcategories/%d", link.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodGet, fmt.Sprintf("/api/v1/recordcategories/%d", link.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGameAdministration(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/v1/games", e.token(e.runner), gin.H{"name": "Portal"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/v1/games", e.token(e.admin), gin.H{"name": "Portal", "release_date": "October 10, 2007"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	game := decode[handler.GameResponse](t, w)
	assert.Equal(t, "portal", game.Slug)
	require.NotNil(t, game.ReleaseDate)
	assert.Equal(t, "2007-10-10", *game.ReleaseDate)

	w = e.do(http.MethodPost, "/api/v1/games", e.token(e.admin), gin.H{"name": "Portal 2", "release_date": "soon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/v1/games/search?q=port", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]handler.GameResponse](t, w), 1)

	w = e.do(http.MethodGet, "/api/v1/games/search?q=zelda", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/v1/categories/games/%d", e.sm64.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]handler.CategoryResponse](t, w), 2)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/v1/gameversions/games/%d", game.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/v1/games/%d", game.ID), e.token(e.admin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodDelete, fmt.Sprintf("/api/v1/games/%d", game.ID), e.token(e.admin), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComments(t *testing.T) {
	e := newTestEnv(t)
	r := e.record(e.runner, e.sm64, e.jp, 6000, models.StatusApproved)

	w := e.do(http.MethodPost, "/api/v1/comments", e.token(e.rival), gin.H{"record_id": r.ID, "comment": "gg"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode[handler.CommentResponse](t, w)
	assert.Equal(t, "rival", comment.Username)

	path := fmt.Sprintf("/api/v1/comments/%d", comment.ID)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPut, path, e.token(e.runner), gin.H{"comment": "edited"}).Code)

	w = e.do(http.MethodPut, path, e.token(e.rival), gin.H{"comment": "good run"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "good run", decode[handler.CommentResponse](t, w).Comment)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/v1/comments/records/%d", r.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]handler.CommentResponse](t, w), 1)

	assert.Equal(t, http.StatusOK, e.do(http.MethodDelete, path, e.token(e.admin), nil).Code)
	w = e.do(http.MethodGet, fmt.Sprintf("/api/v1/comments/records/%d", r.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserAccess(t *testing.T) {
	e := newTestEnv(t)
	path := fmt.Sprintf("/api/v1/users/%d", e.runner.ID)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPut, path, e.token(e.rival), gin.H{"bio": "hi"}).Code)

	w := e.do(http.MethodPut, path, e.token(e.runner), gin.H{"username": "rival"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPut, path, e.token(e.runner), gin.H{"bio": "sub-1:40 hunter"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "sub-1:40 hunter", decode[handler.UserResponse](t, w).Bio)

	w = e.do(http.MethodGet, "/api/v1/users", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]handler.UserResponse](t, w), 3)
	assert.NotContains(t, w.Body.String(), "password")

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodDelete, path, e.token(e.rival), nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodDelete, path, e.token(e.admin), nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, path, "", nil).Code)
}
