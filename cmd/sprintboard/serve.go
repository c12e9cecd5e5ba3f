package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/sprint-board/internal/board"
	"github.com/nhle/sprint-board/internal/server"
	"github.com/nhle/sprint-board/internal/store"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP",
		Long: `Serve the JSON API and the /api/events change stream. Requests pick
their board with the X-User-ID header; requests without it use the configured
user. Intake sources are polled into the configured user's board.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := open(cmd, opts, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if addr != "" {
				rt.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			boards := board.NewRegistry(ctx, rt.store, rt.log.Named("board"),
				board.WithStoryPrefix(rt.cfg.User.StoryPrefix))
			defer boards.Close()

			srv := server.New(server.Config{
				Addr:        rt.cfg.Server.Addr,
				CORSOrigins: rt.cfg.Server.CORSOrigins,
				DefaultUser: rt.cfg.User.ID,
			}, rt.store, boards,
				server.WithLogger(rt.log.Named("api")),
				server.WithDrafter(rt.drafter()),
				server.WithSettings(rt.settings),
			)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.ListenAndServe(ctx) })

			if rt.cfg.Sync.WatchExternal {
				w, err := store.NewWatcher(rt.cfg.Database.Path, rt.store.Changes(),
					time.Duration(rt.cfg.Sync.DebounceMS)*time.Millisecond, rt.log.Named("watch"))
				if err != nil {
					rt.log.Warn("external change watcher disabled", zap.Error(err))
				} else {
					g.Go(func() error { return w.Run(ctx) })
				}
			}

			if p := newPoller(rt, boards.Get(rt.cfg.User.ID)); p != nil {
				p.Start(ctx)
				g.Go(func() error {
					<-ctx.Done()
					p.Stop()
					return nil
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
