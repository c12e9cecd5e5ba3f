package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/ai"
	"github.com/nhle/sprint-board/internal/app"
	"github.com/nhle/sprint-board/internal/board"
	"github.com/nhle/sprint-board/internal/credential"
	"github.com/nhle/sprint-board/internal/logging"
	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/settings"
	"github.com/nhle/sprint-board/internal/store"
)

const version = "0.1.0"

// options holds the persistent flags.
type options struct {
	configPath string
	dbPath     string
	userID     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "sprintboard",
		Short: "Plan sprints and stories from the terminal",
		Long: `sprintboard keeps a priority sprint, your own sprints and a backlog on
one board. Run it without a subcommand to open the interactive board.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", model.DefaultConfigPath(), "config file")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database path (overrides database.path)")
	root.PersistentFlags().StringVarP(&opts.userID, "user", "u", "", "user scope (overrides user.id)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newMCPCmd(opts),
		newExportCmd(opts),
		newGenerateCmd(opts),
		newInitCmd(opts),
		newSecretCmd(),
	)
	return root
}

// loadConfig reads .env, the config file, SPRINTBOARD_* variables and the
// persistent flags, in increasing order of precedence.
func loadConfig(cmd *cobra.Command, opts *options) (*model.AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v, err := model.NewViper(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	cfg, err := model.ConfigFromViper(v)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	flags := cmd.Flags()
	for key, name := range map[string]string{
		"database.path": "db",
		"user.id":       "user",
	} {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// runtime is the set of services every command shares.
type runtime struct {
	cfg      *model.AppConfig
	log      *zap.Logger
	store    *store.SQLiteStore
	creds    *credential.Store
	settings *settings.File
	gen      *ai.Generator
}

// open builds the shared services. logToFile keeps terminal UIs and stdio
// protocols free of log output.
func open(cmd *cobra.Command, opts *options, logToFile bool) (*runtime, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log, logToFile)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	st, err := store.NewSQLiteStore(cfg.Database.Path, store.WithLogger(log.Named("store")))
	if err != nil {
		return nil, err
	}

	creds, err := credential.Open(model.ConfigDir())
	if err != nil {
		st.Close()
		return nil, err
	}

	client := &http.Client{Timeout: 60 * time.Second}
	anthropic := ai.NewAnthropic(client, "")
	anthropic.SetMaxTokens(cfg.AI.MaxTokens)

	return &runtime{
		cfg:      cfg,
		log:      log,
		store:    st,
		creds:    creds,
		settings: settings.Open(filepath.Join(model.ConfigDir(), "settings.json")),
		gen: ai.NewGenerator(
			ai.WithProvider(anthropic),
			ai.WithProvider(ai.NewOpenAI(client, "")),
			ai.WithLogger(log.Named("ai")),
		),
	}, nil
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		r.log.Warn("closing store", zap.Error(err))
	}
	_ = r.log.Sync()
}

func (r *runtime) aiDefaults() model.AISettings {
	return model.AISettings{Provider: r.cfg.AI.Provider, Model: r.cfg.AI.Model}
}

func (r *runtime) drafter() *ai.Drafter {
	return ai.NewDrafter(r.gen, r.creds, r.settings, r.aiDefaults())
}

func (r *runtime) board() *board.Board {
	return board.New(r.store, r.cfg.User.ID,
		board.WithLogger(r.log.Named("board")),
		board.WithStoryPrefix(r.cfg.User.StoryPrefix),
	)
}

func runTUI(cmd *cobra.Command, opts *options) error {
	rt, err := open(cmd, opts, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	b := rt.board()
	go func() { _ = b.Run(ctx) }()

	if rt.cfg.Sync.WatchExternal {
		w, err := store.NewWatcher(rt.cfg.Database.Path, rt.store.Changes(),
			time.Duration(rt.cfg.Sync.DebounceMS)*time.Millisecond, rt.log.Named("watch"))
		if err != nil {
			rt.log.Warn("external change watcher disabled", zap.Error(err))
		} else {
			go func() { _ = w.Run(ctx) }()
		}
	}

	poller := newPoller(rt, b)
	if poller != nil {
		poller.Start(ctx)
		defer poller.Stop()
	}

	exportDir, err := os.Getwd()
	if err != nil {
		exportDir = "."
	}

	m := app.New(ctx, app.Deps{
		Board:        b,
		Poller:       poller,
		Drafter:      rt.drafter(),
		Settings:     rt.settings,
		Keys:         rt.creds,
		AIDefaults:   rt.aiDefaults(),
		DefaultModel: rt.gen.DefaultModel,
		ExportDir:    exportDir,
		Log:          rt.log.Named("tui"),
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
