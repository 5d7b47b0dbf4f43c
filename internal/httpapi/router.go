package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mserjo/bossy-sub005/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Auth          *service.AuthService
	Groups        *service.GroupService
	Proposals     *service.ProposalService
	Tasks         *service.TaskService
	Bonuses       *service.BonusService
	Notifications *service.NotificationService
	Dicts         *service.DictionaryService
	PasswordReset *service.PasswordResetService
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:           logger,
		isProd:           opts.IsProd,
		dbPing:           opts.DBPing,
		authSvc:          opts.Auth,
		groupSvc:         opts.Groups,
		proposalSvc:      opts.Proposals,
		taskSvc:          opts.Tasks,
		bonusSvc:         opts.Bonuses,
		notificationsSvc: opts.Notifications,
		dictSvc:          opts.Dicts,
		passwordResetSvc: opts.PasswordReset,
		loginLimiter:     newLoginLimiter(),
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)

	if api.authSvc == nil {
		apiMux.HandleFunc("POST /v1/auth/register", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/login", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/refresh", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/logout", handleNotImplemented)
		apiMux.HandleFunc("GET /v1/users/me", handleNotImplemented)
	} else {
		apiMux.HandleFunc("POST /v1/auth/register", api.handleAuthRegister)
		apiMux.HandleFunc("POST /v1/auth/login", api.handleAuthLogin)
		apiMux.HandleFunc("POST /v1/auth/refresh", api.handleAuthRefresh)
		apiMux.HandleFunc("POST /v1/auth/logout", api.handleAuthLogout)
		apiMux.HandleFunc("GET /v1/users/me", api.requireAuth(api.handleUsersMe))

		apiMux.HandleFunc("GET /v1/sessions", api.requireAuth(api.handleSessionsList))
		apiMux.HandleFunc("DELETE /v1/sessions", api.requireAuth(api.handleSessionsInvalidateAll))
		apiMux.HandleFunc("DELETE /v1/sessions/{id}", api.requireAuth(api.handleSessionsInvalidate))

		if api.passwordResetSvc != nil {
			apiMux.HandleFunc("POST /v1/auth/password-reset", api.handlePasswordResetRequest)
			apiMux.HandleFunc("POST /v1/auth/password-reset/confirm", api.handlePasswordResetConfirm)
		}

		if api.groupSvc != nil {
			apiMux.HandleFunc("POST /v1/groups", api.requireAuth(api.handleGroupsCreate))
			apiMux.HandleFunc("GET /v1/groups/{id}", api.requireAuth(api.handleGroupsGet))
			apiMux.HandleFunc("GET /v1/groups/{id}/members", api.requireAuth(api.handleGroupsMembers))
			apiMux.HandleFunc("POST /v1/groups/{id}/members", api.requireAuth(api.handleGroupsAddMember))
			apiMux.HandleFunc("GET /v1/groups/{id}/settings", api.requireAuth(api.handleGroupsGetSettings))
			apiMux.HandleFunc("PUT /v1/groups/{id}/settings", api.requireAuth(api.handleGroupsUpdateSettings))
		}

		if api.proposalSvc != nil {
			apiMux.HandleFunc("POST /v1/groups/{id}/proposals", api.requireAuth(api.handleProposalsSubmit))
			apiMux.HandleFunc("GET /v1/groups/{id}/proposals", api.requireAuth(api.handleProposalsList))
			apiMux.HandleFunc("GET /v1/proposals/{id}", api.requireAuth(api.handleProposalsGet))
			apiMux.HandleFunc("POST /v1/proposals/{id}/review", api.requireAuth(api.handleProposalsReview))
		}

		if api.taskSvc != nil {
			apiMux.HandleFunc("POST /v1/groups/{id}/tasks", api.requireAuth(api.handleTasksCreate))
			apiMux.HandleFunc("GET /v1/groups/{id}/tasks", api.requireAuth(api.handleTasksList))
			apiMux.HandleFunc("GET /v1/tasks/{id}", api.requireAuth(api.handleTasksGet))
		}

		if api.bonusSvc != nil {
			apiMux.HandleFunc("GET /v1/groups/{id}/members/{userID}/bonus-account", api.requireAuth(api.handleBonusAccount))
			apiMux.HandleFunc("GET /v1/groups/{id}/members/{userID}/bonus-transactions", api.requireAuth(api.handleBonusTransactions))
		}

		if api.notificationsSvc != nil {
			apiMux.HandleFunc("POST /v1/notifications/token", api.requireAuth(api.handleNotificationsTokenUpsert))
			apiMux.HandleFunc("DELETE /v1/notifications/token", api.requireAuth(api.handleNotificationsTokenDelete))
		}

		if api.dictSvc != nil {
			apiMux.HandleFunc("GET /v1/dictionaries", api.requireAuth(api.handleDictionariesIndex))
			apiMux.HandleFunc("GET /v1/dictionaries/{table}", api.requireAuth(api.handleDictionariesList))
		}
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	authSvc          *service.AuthService
	groupSvc         *service.GroupService
	proposalSvc      *service.ProposalService
	taskSvc          *service.TaskService
	bonusSvc         *service.BonusService
	notificationsSvc *service.NotificationService
	dictSvc          *service.DictionaryService
	passwordResetSvc *service.PasswordResetService

	loginLimiter *loginLimiter
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
