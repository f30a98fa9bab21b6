package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/studybridge/client-go/internal/api"
	"github.com/studybridge/client-go/internal/config"
	"github.com/studybridge/client-go/internal/session"
	"github.com/studybridge/client-go/internal/store"
)

// app carries the wired components every subcommand shares. It is built in
// the root PersistentPreRunE so each command body starts from a restored
// session and a ready API client.
type app struct {
	cfg      *config.Config
	db       *store.DB
	cache    store.CacheRepository
	sessions *session.Manager
	api      *api.Client
}

func (a *app) init(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	setLogLevel(cfg.LogLevel)
	a.cfg = cfg

	statePath, err := cfg.ResolveStatePath()
	if err != nil {
		return err
	}
	db, err := store.Open(statePath)
	if err != nil {
		return err
	}
	a.db = db

	pingCtx, cancel := context.WithTimeout(ctx, config.StorePingTimeout)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		return err
	}

	a.cache = store.NewCacheRepository(db)
	a.sessions = session.NewManager(store.NewIdentityRepository(db), a.cache)
	a.sessions.Restore(ctx)
	a.api = api.New(cfg.APIBaseURL, cfg.HTTPTimeout())

	log.Debug().Str("api", cfg.APIBaseURL).Str("state", statePath).Msg("client initialized")
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "studybridge",
		Short:         "Terminal client for the StudyBridge tutoring backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newChatCmd(a),
		newStudentsCmd(a),
		newProfileCmd(a),
		newLogoutCmd(a),
	)
	return root
}
