package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mserjo/bossy-sub005/internal/auth"
	"github.com/mserjo/bossy-sub005/internal/domain"
	"github.com/mserjo/bossy-sub005/internal/service"
)

type stubUsersStore struct {
	t *testing.T

	getByLoginFunc func(context.Context, string) (domain.UserWithPassword, error)
}

func (s *stubUsersStore) CreateUser(context.Context, string, string, string, string) (domain.User, error) {
	s.t.Fatalf("CreateUser called unexpectedly")
	return domain.User{}, context.Canceled
}

func (s *stubUsersStore) GetUserByID(context.Context, string) (domain.User, error) {
	s.t.Fatalf("GetUserByID called unexpectedly")
	return domain.User{}, context.Canceled
}

func (s *stubUsersStore) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	if s.getByLoginFunc != nil {
		return s.getByLoginFunc(ctx, login)
	}
	s.t.Fatalf("GetUserByLogin called unexpectedly")
	return domain.UserWithPassword{}, context.Canceled
}

func (s *stubUsersStore) TouchLastLogin(context.Context, string, time.Time) error {
	return nil
}

func newAuthAPI(t *testing.T, users service.UsersStore) *api {
	t.Helper()
	return &api{
		authSvc: &service.AuthService{
			Users:  users,
			Signer: auth.NewAccessTokenSigner([]byte("0123456789abcdef0123456789abcdef"), 15*time.Minute),
		},
		loginLimiter: newLoginLimiter(),
	}
}

func TestAuthLoginUnknownUserIsUnauthorized(t *testing.T) {
	api := newAuthAPI(t, &stubUsersStore{
		t: t,
		getByLoginFunc: func(context.Context, string) (domain.UserWithPassword, error) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"identifier":"a@b.c","password":"pw"}`))
	rr := httptest.NewRecorder()

	api.handleAuthLogin(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp errorEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != "invalid_credentials" {
		t.Fatalf("unexpected error code: %s", resp.Error.Code)
	}
}

func TestAuthLoginRateLimited(t *testing.T) {
	api := newAuthAPI(t, &stubUsersStore{
		t: t,
		getByLoginFunc: func(context.Context, string) (domain.UserWithPassword, error) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		},
	})

	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"identifier":"a@b.c","password":"pw"}`))
		rr := httptest.NewRecorder()
		api.handleAuthLogin(rr, req)
		last = rr.Code
	}

	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated attempts, got %d", last)
	}
}

func TestAuthRefreshGarbageTokenIsUnauthorized(t *testing.T) {
	api := newAuthAPI(t, &stubUsersStore{t: t})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", strings.NewReader(`{"refresh_token":"not-a-token"}`))
	rr := httptest.NewRecorder()

	api.handleAuthRefresh(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestAuthLogoutAlwaysNoContent(t *testing.T) {
	api := newAuthAPI(t, &stubUsersStore{t: t})

	for _, body := range []string{"", `{"refresh_token":""}`} {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", strings.NewReader(body))
		rr := httptest.NewRecorder()
		api.handleAuthLogout(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("body %q: unexpected status %d", body, rr.Code)
		}
	}
}

func TestRequireAuthRejectsMissingBearer(t *testing.T) {
	api := newAuthAPI(t, &stubUsersStore{t: t})

	handler := api.requireAuth(func(http.ResponseWriter, *http.Request) {
		t.Fatalf("handler reached without credentials")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}
