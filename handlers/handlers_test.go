package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"birthdayreminder/config"
	"birthdayreminder/middleware"
	"birthdayreminder/models"
	"birthdayreminder/services"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Register(ctx context.Context, in services.RegisterInput) (models.User, models.TokenPair, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.User), args.Get(1).(models.TokenPair), args.Error(2)
}

func (m *mockAuth) Login(ctx context.Context, username, password string) (models.TokenPair, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(models.TokenPair), args.Error(1)
}

func (m *mockAuth) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(models.TokenPair), args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

// ParseAccessToken accepts "token-<id>".
func (m *mockAuth) ParseAccessToken(token string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(token, "token-%d", &id); err != nil {
		return 0, models.ErrUnauthorized
	}
	return id, nil
}

type mockSubs struct {
	mock.Mock
}

func (m *mockSubs) Follow(ctx context.Context, followerID, followedID int64, lead models.LeadTime) (models.Notification, error) {
	args := m.Called(ctx, followerID, followedID, lead)
	return args.Get(0).(models.Notification), args.Error(1)
}

func (m *mockSubs) Unfollow(ctx context.Context, followerID, followedID int64) error {
	return m.Called(ctx, followerID, followedID).Error(0)
}

func (m *mockSubs) ListNotifications(ctx context.Context, userID int64) ([]models.NotificationView, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.NotificationView), args.Error(1)
}

func (m *mockSubs) Profile(ctx context.Context, userID int64) (models.Profile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Profile), args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type fixture struct {
	auth   *mockAuth
	subs   *mockSubs
	router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newFixture(t *testing.T, pingErr error) *fixture {
	t.Helper()

	f := &fixture{auth: new(mockAuth), subs: new(mockSubs)}
	cfg := config.AuthConfig{AccessTokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour}
	h := New(f.auth, f.subs, stubPinger{err: pingErr}, cfg, zerolog.Nop())
	f.router = NewRouter(h, f.auth, zerolog.Nop(), http.NotFoundHandler())

	t.Cleanup(func() {
		f.auth.AssertExpectations(t)
		f.subs.AssertExpectations(t)
	})
	return f
}

func (f *fixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func cookieValue(w *httptest.ResponseRecorder, name string) string {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

const validRegistration = `{
	"username": "alice",
	"email": "alice@example.com",
	"password": "s3cret-pass",
	"password_confirmation": "s3cret-pass",
	"birthday": "1990-07-10"
}`

func TestRegister_Created(t *testing.T) {
	f := newFixture(t, nil)
	user := models.User{ID: 1, Username: "alice", Email: "alice@example.com"}
	pair := models.TokenPair{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

	f.auth.On("Register", mock.Anything, mock.MatchedBy(func(in services.RegisterInput) bool {
		return in.Username == "alice" && in.Birthday.Equal(time.Date(1990, time.July, 10, 0, 0, 0, 0, time.UTC))
	})).Return(user, pair, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/user/register", validRegistration, "")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{
		"user": {"id": 1, "username": "alice", "email": "alice@example.com"},
		"access_token": "access",
		"token_type": "Bearer"
	}`, w.Body.String())
	assert.Equal(t, "refresh", cookieValue(w, middleware.RefreshCookie))
	assert.NotContains(t, w.Body.String(), "hashed_password")
}

func TestRegister_Errors(t *testing.T) {
	tomorrow := time.Now().UTC().AddDate(0, 0, 2).Format(dateLayout)

	cases := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{"bad email", strings.Replace(validRegistration, "alice@example.com", "nope", 1), nil, http.StatusBadRequest},
		{"bad birthday format", strings.Replace(validRegistration, "1990-07-10", "10.07.1990", 1), nil, http.StatusBadRequest},
		{"future birthday", strings.Replace(validRegistration, "1990-07-10", tomorrow, 1), nil, http.StatusBadRequest},
		{"password mismatch", validRegistration, models.ErrPasswordsDoNotMatch, http.StatusNotAcceptable},
		{"username too long", validRegistration, models.ErrUsernameTooLong, http.StatusRequestEntityTooLarge},
		{"duplicate", validRegistration, models.ErrUserAlreadyExists, http.StatusConflict},
		{"database down", validRegistration, errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if tc.serviceErr != nil {
				f.auth.On("Register", mock.Anything, mock.Anything).
					Return(models.User{}, models.TokenPair{}, tc.serviceErr).Once()
			}

			w := f.do(http.MethodPost, "/api/v1/user/register", tc.body, "")

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusInternalServerError {
				assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)
	f.auth.On("Login", mock.Anything, "alice", "right").
		Return(models.TokenPair{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}, nil).Once()
	f.auth.On("Login", mock.Anything, "alice", "wrong").
		Return(models.TokenPair{}, models.ErrInvalidCredentials).Once()

	w := f.do(http.MethodPost, "/api/v1/user/login", `{"username":"alice","password":"right"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"access_token":"a","token_type":"Bearer"}`, w.Body.String())
	assert.Equal(t, "r", cookieValue(w, middleware.RefreshCookie))

	w = f.do(http.MethodPost, "/api/v1/user/login", `{"username":"alice","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/v1/user/login", `{"username":"alice"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefresh_FromCookieAndBody(t *testing.T) {
	f := newFixture(t, nil)
	f.auth.On("Refresh", mock.Anything, "from-cookie").
		Return(models.TokenPair{AccessToken: "a1", RefreshToken: "from-cookie", TokenType: "Bearer"}, nil).Once()
	f.auth.On("Refresh", mock.Anything, "from-body").
		Return(models.TokenPair{}, models.ErrTokenRevoked).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/token/refresh", nil)
	req.AddCookie(&http.Cookie{Name: middleware.RefreshCookie, Value: "from-cookie"})
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"access_token":"a1","token_type":"Bearer"}`, w.Body.String())

	w = f.do(http.MethodPost, "/api/v1/token/refresh", `{"refresh_token":"from-body"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/v1/token/refresh", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_ClearsCookies(t *testing.T) {
	f := newFixture(t, nil)
	f.auth.On("Logout", mock.Anything, "r").Return(nil).Once()

	w := f.do(http.MethodPost, "/api/v1/token/logout", `{"refresh_token":"r"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}
}

func TestFollow(t *testing.T) {
	at := time.Date(2024, time.July, 8, 0, 0, 0, 0, time.UTC)
	lead := models.LeadTime{Days: 2}

	cases := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "created",
			body:       `{"followed_id": 2, "lead_time": {"days": 2}}`,
			wantStatus: http.StatusCreated,
			wantBody:   `{"subscription_id": 7, "notification_time": "2024-07-08T00:00:00Z"}`,
		},
		{"self follow", `{"followed_id": 2, "lead_time": {"days": 2}}`, models.ErrSelfFollow, http.StatusBadRequest, ""},
		{"lead too large", `{"followed_id": 2, "lead_time": {"days": 2}}`, models.ErrLeadTimeTooLarge, http.StatusBadRequest, ""},
		{"unknown user", `{"followed_id": 2, "lead_time": {"days": 2}}`, models.ErrUserNotFound, http.StatusNotFound, ""},
		{"duplicate", `{"followed_id": 2, "lead_time": {"days": 2}}`, models.ErrSubscriptionAlreadyExists, http.StatusConflict, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.subs.On("Follow", mock.Anything, int64(1), int64(2), lead).
				Return(models.Notification{ID: 70, SubscriptionID: 7, NotificationTime: at}, tc.serviceErr).Once()

			w := f.do(http.MethodPost, "/api/v1/subscriptions", tc.body, "token-1")

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, w.Body.String())
			}
		})
	}
}

func TestFollow_BindingErrors(t *testing.T) {
	f := newFixture(t, nil)

	for _, body := range []string{
		`{"lead_time": {"hours": 1}}`,
		`{"followed_id": 2, "lead_time": {"hours": -1}}`,
		`not json`,
	} {
		w := f.do(http.MethodPost, "/api/v1/subscriptions", body, "token-1")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	f := newFixture(t, nil)

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/user/me"},
		{http.MethodPost, "/api/v1/subscriptions"},
		{http.MethodDelete, "/api/v1/subscriptions/2"},
		{http.MethodGet, "/api/v1/notifications"},
	} {
		w := f.do(r.method, r.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, r.path)
	}
}

func TestUnfollow(t *testing.T) {
	f := newFixture(t, nil)
	f.subs.On("Unfollow", mock.Anything, int64(1), int64(2)).Return(nil).Once()
	f.subs.On("Unfollow", mock.Anything, int64(1), int64(3)).Return(models.ErrSubscriptionNotFound).Once()

	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/api/v1/subscriptions/2", "", "token-1").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/v1/subscriptions/3", "", "token-1").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodDelete, "/api/v1/subscriptions/abc", "", "token-1").Code)
}

func TestListNotifications(t *testing.T) {
	f := newFixture(t, nil)
	views := []models.NotificationView{{
		NotificationTime: time.Date(2024, time.July, 8, 0, 0, 0, 0, time.UTC),
		Target:           models.PublicUser{ID: 2, Username: "bob", Email: "bob@example.com"},
	}}
	f.subs.On("ListNotifications", mock.Anything, int64(1)).Return(views, nil).Once()

	w := f.do(http.MethodGet, "/api/v1/notifications", "", "token-1")

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Notifications []models.NotificationView `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, views, resp.Notifications)
}

func TestMe(t *testing.T) {
	f := newFixture(t, nil)
	profile := models.Profile{
		PublicUser: models.PublicUser{ID: 1, Username: "alice", Email: "alice@example.com"},
		Birthday:   time.Date(1990, time.March, 3, 0, 0, 0, 0, time.UTC),
		Followers:  []models.PublicUser{},
		Following:  []models.PublicUser{{ID: 2, Username: "bob", Email: "bob@example.com"}},
	}
	f.subs.On("Profile", mock.Anything, int64(1)).Return(profile, nil).Once()

	w := f.do(http.MethodGet, "/api/v1/user/me", "", "token-1")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"id": 1, "username": "alice", "email": "alice@example.com",
		"birthday": "1990-03-03T00:00:00Z",
		"followers": [],
		"following": [{"id": 2, "username": "bob", "email": "bob@example.com"}]
	}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	assert.Equal(t, http.StatusOK, newFixture(t, nil).do(http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable,
		newFixture(t, errors.New("down")).do(http.MethodGet, "/healthz", "", "").Code)
}
