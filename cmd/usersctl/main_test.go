package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
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
	"user-management/internal/transport/http/router"
)

type harness struct {
	base  string
	store *repo.MemoryUserStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.API.EmptyListNotFound = true

	jwter := &auth.JWTer{Secret: []byte("k"), Issuer: "test", TTL: time.Hour}
	authn, err := auth.NewStaticAuthenticator("admin@mail.com", "123456789", "")
	require.NoError(t, err)
	store := repo.NewMemoryUserStore()

	srv := httptest.NewServer(router.NewAPIEngine(router.Deps{
		Log: zap.NewNop(),
		Cfg: cfg,
		JWT: jwter,
		Registry: router.NewRegistry(
			handler.NewAuthHandler(authn, jwter),
			handler.NewUserHandler(service.NewUserService(store), true),
		),
	}))
	t.Cleanup(srv.Close)
	return &harness{base: srv.URL + "/api", store: store}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), append([]string{"--api", h.base}, args...), strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), err
}

func (h *harness) seed(t *testing.T, uid, email, first string) string {
	t.Helper()
	u := &domain.User{
		UniqueID:     uid,
		FirstName:    first,
		LastName:     "Test",
		Email:        email,
		Gender:       domain.GenderOther,
		SelectedDate: time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC),
		FullAddress:  "Somewhere",
		Status:       domain.StatusActive,
	}
	require.NoError(t, h.store.Insert(context.Background(), u))
	return u.ID
}

func TestRun_ListEmpty(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run(t, "", "list")
	require.NoError(t, err)
	assert.Equal(t, "no users\n", out)
}

func TestRun_LoginPrintsToken(t *testing.T) {
	h := newHarness(t)
	out, _, err := h.run(t, "", "login", "admin@mail.com", "123456789")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	_, _, err = h.run(t, "", "login", "admin@mail.com", "nope")
	assert.Error(t, err)
}

func TestRun_AddValidatesThenCreates(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "", "add", "--first-name", "Ada")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lastName: Last name is required")

	out, _, err := h.run(t, "", "add",
		"--unique-id", "U1", "--first-name", "Ada", "--last-name", "Lovelace",
		"--email", "ada@mail.com", "--gender", "Female", "--dob", "1990-12-10",
		"--address", "London", "--phone", "9876543210")
	require.NoError(t, err)
	assert.Contains(t, out, "created successfully!")
	assert.Contains(t, out, "10/12/1990")

	all, err := h.store.FindAll(context.Background(), domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Delete)
}

func TestRun_ListSortsAndPages(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "U1", "b@mail.com", "Bea")
	h.seed(t, "U2", "a@mail.com", "Abe")
	h.seed(t, "U3", "c@mail.com", "Cal")

	out, _, err := h.run(t, "", "--sort", "name", "--order", "desc", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[1], "Cal Test")
	assert.Contains(t, lines[3], "Abe Test")
	assert.Equal(t, "page 1/1, 3 rows", lines[4])

	_, _, err = h.run(t, "", "--sort", "fname", "list")
	assert.Error(t, err)
	_, _, err = h.run(t, "", "--size", "7", "list")
	assert.Error(t, err)
}

func TestRun_Search(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "U1", "b@mail.com", "Bea")
	h.seed(t, "X9", "a@mail.com", "Abe")

	out, _, err := h.run(t, "", "search", "bea")
	require.NoError(t, err)
	assert.Contains(t, out, "Bea Test")
	assert.NotContains(t, out, "Abe Test")

	out, _, err = h.run(t, "", "search", "x9")
	require.NoError(t, err)
	assert.Contains(t, out, "Abe Test")

	out, _, err = h.run(t, "", "search", "zzz")
	require.NoError(t, err)
	assert.Equal(t, "no matches\n", out)
}

func TestRun_DeleteAndRestore(t *testing.T) {
	h := newHarness(t)
	a := h.seed(t, "U1", "a@mail.com", "Abe")
	b := h.seed(t, "U2", "b@mail.com", "Bea")

	// 未确认不发请求
	out, _, err := h.run(t, "n\n", "delete", a)
	require.NoError(t, err)
	assert.Contains(t, out, "Are you sure you want to delete Abe Test?")
	deleted, _, err := h.run(t, "", "deleted")
	require.NoError(t, err)
	assert.Equal(t, "no users\n", deleted)

	out, _, err = h.run(t, "y\n", "delete", a)
	require.NoError(t, err)
	assert.Contains(t, out, "User Deleted Successfully")

	// 已删除的记录再删没有修改，服务端返回 404
	_, errOut, err := h.run(t, "", "delete", "-y", a)
	require.Error(t, err)
	assert.Equal(t, "Something Went Wrong\n", errOut)
	assert.False(t, printable(err))

	out, _, err = h.run(t, "", "delete", "-y", b)
	require.NoError(t, err)
	assert.Contains(t, out, "User Deleted Successfully")

	out, _, err = h.run(t, "", "restore", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "All Users Enabled Successfully")

	u, err := h.store.FindByID(context.Background(), b)
	require.NoError(t, err)
	assert.False(t, u.Delete)
}

func TestRun_FailedAddReportedOnce(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "U1", "a@mail.com", "Abe")

	_, errOut, err := h.run(t, "", "add",
		"--unique-id", "U1", "--first-name", "Ada", "--last-name", "Lovelace",
		"--email", "ada@mail.com", "--gender", "Female", "--dob", "1990-12-10",
		"--address", "London", "--phone", "9876543210")
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(errOut, "uniqueId: already exists"))
	assert.False(t, printable(err))

	// 本地校验失败没有经过 notifier，需要 main 打印
	_, _, err = h.run(t, "", "add", "--first-name", "Ada")
	require.Error(t, err)
	assert.True(t, printable(err))
}

func TestRun_UnknownCommand(t *testing.T) {
	h := newHarness(t)
	_, errOut, err := h.run(t, "", "frobnicate")
	require.Error(t, err)
	assert.Contains(t, errOut, "usage: usersctl")
}
