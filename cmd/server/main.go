package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/mserjo/bossy-sub005/internal/auth"
	"github.com/mserjo/bossy-sub005/internal/config"
	"github.com/mserjo/bossy-sub005/internal/domain"
	"github.com/mserjo/bossy-sub005/internal/email"
	"github.com/mserjo/bossy-sub005/internal/httpapi"
	"github.com/mserjo/bossy-sub005/internal/integrations"
	"github.com/mserjo/bossy-sub005/internal/migrate"
	"github.com/mserjo/bossy-sub005/internal/notifications"
	"github.com/mserjo/bossy-sub005/internal/service"
	"github.com/mserjo/bossy-sub005/internal/store/postgres"
)

// dictTables are the reference tables managed by the dictionary layer.
var dictTables = []string{
	"statuses", "user_types", "group_types", "task_types",
	"bonus_types", "calendar_providers", "messenger_platforms",
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		authSvc          *service.AuthService
		groupSvc         *service.GroupService
		proposalSvc      *service.ProposalService
		taskSvc          *service.TaskService
		bonusSvc         *service.BonusService
		notificationsSvc *service.NotificationService
		dictSvc          *service.DictionaryService
		passwordResetSvc *service.PasswordResetService
		dbPing           func(context.Context) error
	)

	if cfg.DBDSN != "" {
		if err := migrate.Up(ctx, cfg.DBDSN); err != nil {
			logger.Error("migrations failed", "err", err)
			os.Exit(1)
		}

		db, err := postgres.Open(ctx, cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		users := postgres.NewUsersStore(db)
		tokens := postgres.NewRefreshTokensStore(db)
		sessions := postgres.NewSessionsStore(db)
		groups := postgres.NewGroupsStore(db)
		proposals := postgres.NewProposalsStore(db)
		tasks := postgres.NewTasksStore(db)
		bonuses := postgres.NewBonusesStore(db)
		pushTokens := postgres.NewNotificationTokensStore(db)
		resets := postgres.NewPasswordResetStore(db)

		dictSvc, err = buildDictionaries(ctx, db)
		if err != nil {
			logger.Error("dictionary seeding failed", "err", err)
			os.Exit(1)
		}

		if err := bootstrapSuperadmin(ctx, logger, users, dictSvc, cfg.SuperadminBootstrapEmail, cfg.SuperadminBootstrapPassword); err != nil {
			logger.Error("superadmin bootstrap failed", "err", err)
			os.Exit(1)
		}

		signer := auth.NewAccessTokenSigner([]byte(cfg.AccessTokenSecret), cfg.AccessTokenTTL)

		authSvc = &service.AuthService{
			Users:                 users,
			Tokens:                tokens,
			Sessions:              sessions,
			Dicts:                 dictSvc,
			Signer:                signer,
			RefreshTTL:            cfg.RefreshTokenTTL,
			RotateRefreshTokens:   cfg.RotateRefreshTokens,
			RevokeSiblingsOnReuse: cfg.RevokeSiblingsOnReuse,
		}

		notificationsSvc = &service.NotificationService{
			Tokens:  pushTokens,
			Members: groups,
			Logger:  logger,
		}
		if cfg.FCMProjectID != "" && cfg.FCMCredentialsPath != "" {
			sender, err := notifications.NewFCMSender(ctx, cfg.FCMProjectID, cfg.FCMCredentialsPath)
			if err != nil {
				logger.Error("fcm init failed", "err", err)
				os.Exit(1)
			}
			notificationsSvc.Sender = sender
		} else {
			logger.Info("push notifications disabled")
		}

		groupSvc = &service.GroupService{Groups: groups, Dicts: dictSvc}
		proposalSvc = &service.ProposalService{
			Proposals: proposals,
			Groups:    groups,
			Dicts:     dictSvc,
			Tasks:     tasks,
			Notifier:  notificationsSvc,
		}
		taskSvc = &service.TaskService{
			Tasks:  tasks,
			Groups: groups,
			Dicts:  dictSvc,
			Logger: logger,
		}
		if cfg.CalendarCredentialsPath != "" && cfg.CalendarID != "" {
			cal, err := integrations.NewCalendarClient(ctx, cfg.CalendarCredentialsPath, cfg.CalendarID)
			if err != nil {
				logger.Error("calendar init failed", "err", err)
				os.Exit(1)
			}
			taskSvc.Scheduler = cal
		}
		bonusSvc = &service.BonusService{Bonuses: bonuses, Groups: groups}

		passwordResetSvc = &service.PasswordResetService{
			Store:    resets,
			Users:    users,
			Tokens:   tokens,
			TokenTTL: cfg.ResetTokenTTL,
			Logger:   logger,
		}
		if cfg.SMTP.Host != "" {
			passwordResetSvc.Mailer = &email.Mailer{
				Settings: email.Settings{
					Host:      cfg.SMTP.Host,
					Port:      cfg.SMTP.Port,
					Username:  cfg.SMTP.Username,
					Password:  cfg.SMTP.Password,
					FromName:  cfg.SMTP.FromName,
					FromEmail: cfg.SMTP.FromEmail,
				},
				PublicURL: cfg.PublicURL,
			}
		} else {
			logger.Info("reset mail disabled")
		}

		cleanup := &service.CleanupService{
			Tokens:    tokens,
			Sessions:  sessions,
			Resets:    resets,
			Retention: cfg.RevokedTokenTTL,
			Logger:    logger,
		}
		go cleanup.Run(ctx, cfg.CleanupInterval)

		dbPing = func(ctx context.Context) error {
			return db.Pool.QueryRow(ctx, "SELECT 1").Scan(new(int))
		}
	}

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:        logger,
		IsProd:        cfg.IsProd(),
		DBPing:        dbPing,
		Auth:          authSvc,
		Groups:        groupSvc,
		Proposals:     proposalSvc,
		Tasks:         taskSvc,
		Bonuses:       bonusSvc,
		Notifications: notificationsSvc,
		Dicts:         dictSvc,
		PasswordReset: passwordResetSvc,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func buildDictionaries(ctx context.Context, db *postgres.DB) (*service.DictionaryService, error) {
	stores := make([]service.DictStore, 0, len(dictTables))
	byTable := make(map[string]*postgres.DictStore, len(dictTables))
	for _, table := range dictTables {
		st, err := postgres.NewDictStore(db, table)
		if err != nil {
			return nil, err
		}
		stores = append(stores, st)
		byTable[table] = st
	}

	seeds := map[string][][3]string{
		"statuses": {
			{domain.StatusPending, "Pending", "Awaiting review"},
			{domain.StatusApproved, "Approved", "Accepted by an admin"},
			{domain.StatusRejected, "Rejected", "Declined by an admin"},
		},
		"user_types": {
			{domain.UserTypeSuperadmin, "Superadmin", "Full access to every group"},
			{domain.UserTypeUser, "User", "Regular account"},
			{domain.UserTypeBot, "Bot", "Automation account"},
		},
		"group_types": {
			{"family", "Family", ""},
			{"friends", "Friends", ""},
			{"team", "Team", ""},
			{"organization", "Organization", ""},
		},
		"task_types": {
			{"chore", "Chore", "Recurring household duty"},
			{"errand", "Errand", "One-off task"},
			{"goal", "Goal", "Longer-running objective"},
		},
		"bonus_types": {
			{domain.BonusTypeProposal, "Proposal bonus", "Awarded when a task proposal is approved"},
			{"task_completion", "Task completion", "Awarded for completing a task"},
			{"manual", "Manual", "Granted by a group admin"},
		},
		"calendar_providers": {
			{"google", "Google Calendar", ""},
		},
		"messenger_platforms": {
			{"telegram", "Telegram", ""},
			{"viber", "Viber", ""},
		},
	}
	for table, rows := range seeds {
		st := byTable[table]
		for _, row := range rows {
			if err := st.Seed(ctx, row[0], row[1], row[2]); err != nil {
				return nil, err
			}
		}
	}

	return service.NewDictionaryService(stores...), nil
}

func bootstrapSuperadmin(ctx context.Context, logger *slog.Logger, users *postgres.UsersStore, dicts *service.DictionaryService, emailAddr, password string) error {
	if password == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	_, err := users.GetUserByEmail(ctx, emailAddr)
	if err == nil {
		logger.Info("superadmin bootstrap: user already exists", "email", emailAddr)
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("superadmin bootstrap: lookup user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("superadmin bootstrap: hash password: %w", err)
	}
	typeID, err := dicts.IDByCode(ctx, "user_types", domain.UserTypeSuperadmin)
	if err != nil {
		return fmt.Errorf("superadmin bootstrap: resolve user type: %w", err)
	}

	if _, err := users.CreateUser(ctx, emailAddr, "", hash, typeID); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			logger.Info("superadmin bootstrap: user already exists", "email", emailAddr)
			return nil
		}
		return fmt.Errorf("superadmin bootstrap: create user: %w", err)
	}

	logger.Info("superadmin bootstrap: created superadmin", "email", emailAddr)
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
