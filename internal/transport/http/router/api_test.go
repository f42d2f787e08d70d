package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"user-management/internal/core/auth"
	"user-management/internal/core/config"
	"user-management/internal/domain"
	"user-management/internal/repo"
	"user-management/internal/service"
	"user-management/internal/transport/http/handler"
)

func init() { gin.SetMode(gin.TestMode) }

type testAPI struct {
	t     *testing.T
	r     *gin.Engine
	jwter *auth.JWTer
}

func newTestAPI(t *testing.T, mut func(*config.Config)) *testAPI {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.CORS.AllowedOrigin = "http://localhost:3000"
	cfg.API.EmptyListNotFound = true
	if mut != nil {
		mut(cfg)
	}

	jwter := &auth.JWTer{Secret: []byte("secretKey"), Issuer: "test", TTL: time.Hour}
	authn, err := auth.NewStaticAuthenticator("userManagement@mail.com", "123456789", "")
	require.NoError(t, err)

	store := repo.NewMemoryUserStore()
	svc := service.NewUserService(store)
	r := NewAPIEngine(Deps{
		Log:    zap.NewNop(),
		Cfg:    cfg,
		JWT:    jwter,
		Health: store,
		Registry: NewRegistry(
			handler.NewAuthHandler(authn, jwter, LoginGuards(cfg.API)...),
			handler.NewUserHandler(svc, cfg.API.EmptyListNotFound),
		),
	})
	return &testAPI{t: t, r: r, jwter: jwter}
}

func (a *testAPI) do(method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func userBody(uid, email string) map[string]any {
	return map[string]any{
		"uniqueId":     uid,
		"firstName":    "Ada",
		"lastName":     "Lovelace",
		"email":        email,
		"gender":       "Female",
		"selectedDate": "2024-01-15T00:00:00.000Z",
		"fullAddress":  "London",
		"phoneNumber":  9876543210,
		"status":       "Active",
	}
}

func TestLogin(t *testing.T) {
	a := newTestAPI(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"numeric password", `{"username":"userManagement@mail.com","password":123456789}`, http.StatusOK},
		{"string password", `{"username":"userManagement@mail.com","password":"123456789"}`, http.StatusOK},
		{"wrong password", `{"username":"userManagement@mail.com","password":"nope"}`, http.StatusUnauthorized},
		{"wrong user", `{"username":"x@mail.com","password":"123456789"}`, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := a.do(http.MethodPost, "/api/login", tc.body)
			require.Equal(t, tc.want, w.Code, w.Body.String())
			if tc.want == http.StatusOK {
				out := decode[map[string]string](t, w)
				claims, err := a.jwter.Parse(out["token"])
				require.NoError(t, err)
				assert.Equal(t, "userManagement@mail.com", claims.Username)
				assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
				return
			}
			assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())
		})
	}
}

func TestLoginRateLimitedPerIP(t *testing.T) {
	a := newTestAPI(t, func(c *config.Config) {
		c.API.LoginRateLimitPerIP = 0.001
		c.API.LoginRateLimitBurst = 1
	})
	body := `{"username":"userManagement@mail.com","password":"123456789"}`

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/login", body).Code)
	w := a.do(http.MethodPost, "/api/login", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())

	// 其他路由不受影响
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/users", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/users", nil).Code)
}

func TestCreateThenDuplicate(t *testing.T) {
	a := newTestAPI(t, nil)

	w := a.do(http.MethodPost, "/api/users", userBody("U1", "Ada@Mail.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	u := decode[domain.User](t, w)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@mail.com", u.Email)
	assert.False(t, u.Delete)

	w = a.do(http.MethodPost, "/api/users", userBody("U1", "other@mail.com"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "uniqueId")

	bad := userBody("U2", "not-an-email")
	bad["gender"] = "Robot"
	w = a.do(http.MethodPost, "/api/users", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	msg := decode[map[string]string](t, w)["error"]
	assert.Contains(t, msg, "email")
	assert.Contains(t, msg, "gender")
}

func TestListEmptyIs404(t *testing.T) {
	a := newTestAPI(t, nil)

	w := a.do(http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No users found"}`, w.Body.String())

	w = a.do(http.MethodGet, "/api/deletedUsers", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No deleted users found"}`, w.Body.String())
}

func TestListEmptyCanBeEmptyArray(t *testing.T) {
	a := newTestAPI(t, func(c *config.Config) { c.API.EmptyListNotFound = false })
	w := a.do(http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetAndUpdate(t *testing.T) {
	a := newTestAPI(t, nil)
	u := decode[domain.User](t, a.do(http.MethodPost, "/api/users", userBody("U1", "a@b.com")))

	w := a.do(http.MethodGet, "/api/users/"+u.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, u, decode[domain.User](t, w))

	for _, id := range []string{"0123456789abcdef01234567", "not-an-id"} {
		w = a.do(http.MethodGet, "/api/users/"+id, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"message":"User not found"}`, w.Body.String())

		w = a.do(http.MethodPut, "/api/users/"+id, userBody("U1", "a@b.com"))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"message":"User not found"}`, w.Body.String())
	}

	body := userBody("U1", "new@b.com")
	delete(body, "phoneNumber")
	w = a.do(http.MethodPut, "/api/users/"+u.ID, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[domain.User](t, w)
	assert.Equal(t, "new@b.com", got.Email)
	assert.Nil(t, got.PhoneNumber)

	body["email"] = "broken"
	w = a.do(http.MethodPut, "/api/users/"+u.ID, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkFlagAndDeletedUsers(t *testing.T) {
	a := newTestAPI(t, nil)
	u1 := decode[domain.User](t, a.do(http.MethodPost, "/api/users", userBody("U1", "a@b.com")))
	u2 := decode[domain.User](t, a.do(http.MethodPost, "/api/users", userBody("U2", "c@d.com")))

	w := a.do(http.MethodDelete, "/api/users/bulk", map[string]any{"ids": []string{u1.ID}, "delete": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[domain.BulkResult](t, w)
	assert.True(t, res.Acknowledged)
	assert.Equal(t, int64(1), res.ModifiedCount)

	w = a.do(http.MethodGet, "/api/deletedUsers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	deleted := decode[[]domain.User](t, w)
	require.Len(t, deleted, 1)
	assert.Equal(t, u1.ID, deleted[0].ID)
	assert.True(t, deleted[0].Delete)

	// GET /users 不过滤软删
	all := decode[[]domain.User](t, a.do(http.MethodGet, "/api/users", nil))
	assert.Len(t, all, 2)

	// 重复置位不产生修改
	w = a.do(http.MethodDelete, "/api/users/bulk", map[string]any{"ids": []string{u1.ID}, "delete": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No matching users found"}`, w.Body.String())

	w = a.do(http.MethodDelete, "/api/users/bulk", map[string]any{"ids": []string{"nope"}, "delete": false})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodDelete, "/api/users/bulk", map[string]any{"ids": []string{u1.ID, u2.ID}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodDelete, "/api/users/bulk", map[string]any{"ids": []string{u1.ID}, "delete": false})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodGet, "/api/deletedUsers", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddAll(t *testing.T) {
	a := newTestAPI(t, nil)

	w := a.do(http.MethodPost, "/api/addAll", map[string]any{
		"users": []any{userBody("U1", "a@b.com"), userBody("U2", "c@d.com")},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	type addAllResp struct {
		Success       bool          `json:"success"`
		InsertedUsers []domain.User `json:"insertedUsers"`
	}
	out := decode[addAllResp](t, w)
	assert.True(t, out.Success)
	require.Len(t, out.InsertedUsers, 2)
	assert.NotEmpty(t, out.InsertedUsers[0].ID)

	// 与已有记录冲突：整体失败，不落库
	w = a.do(http.MethodPost, "/api/addAll", map[string]any{
		"users": []any{userBody("U3", "e@f.com"), userBody("U1", "g@h.com")},
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
	all := decode[[]domain.User](t, a.do(http.MethodGet, "/api/users", nil))
	assert.Len(t, all, 2)
}

func TestAddAllEdgeBodies(t *testing.T) {
	a := newTestAPI(t, nil)

	w := a.do(http.MethodPost, "/api/addAll", `{"users":[]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"insertedUsers":[]}`, w.Body.String())

	for _, body := range []string{`{}`, `{"users":`} {
		w = a.do(http.MethodPost, "/api/addAll", body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, body)
		assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
	}
}

func TestRequireToken(t *testing.T) {
	a := newTestAPI(t, func(c *config.Config) { c.Auth.RequireToken = true })

	w := a.do(http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/login", `{"username":"userManagement@mail.com","password":"123456789"}`)
	require.Equal(t, http.StatusOK, w.Code)
	tok := decode[map[string]string](t, w)["token"]

	w = a.do(http.MethodGet, "/api/users", nil, "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestAPI(t, nil)
	w := a.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestMalformedJSON(t *testing.T) {
	a := newTestAPI(t, nil)
	w := a.do(http.MethodPost, "/api/users", `{"uniqueId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Register(struct{}{}))
	assert.True(t, r.Register(&handler.AuthHandler{}))
}
