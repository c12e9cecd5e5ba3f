package main

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/intake"
	"github.com/nhle/sprint-board/internal/intake/email"
	"github.com/nhle/sprint-board/internal/intake/jira"
	"github.com/nhle/sprint-board/internal/model"
)

// secrets looks up source credentials by keyring key.
type secrets interface {
	Get(key string) (string, error)
}

// configuredSource is an intake source ready to register with a poller.
type configuredSource struct {
	src      intake.Source
	interval time.Duration
}

// credentialKey is the keyring key holding a source's token or password.
func credentialKey(src model.SourceConfig) string {
	return src.Type + "-" + src.ID
}

// buildSources turns the enabled source configs into intake sources.
// Sources with missing credentials or an unknown type are skipped.
func buildSources(cfgs []model.SourceConfig, creds secrets, log *zap.Logger) []configuredSource {
	var out []configuredSource
	for _, c := range cfgs {
		if !c.Enabled {
			continue
		}
		log := log.With(zap.String("source", c.ID), zap.String("type", c.Type))

		secret, err := creds.Get(credentialKey(c))
		if err != nil {
			log.Warn("skipping source without credential", zap.String("key", credentialKey(c)), zap.Error(err))
			continue
		}

		var src intake.Source
		switch intake.Type(c.Type) {
		case intake.TypeJira:
			src = jira.New(c.ID, c.BaseURL, secret, c.Config["jql"])
		case intake.TypeEmail:
			useTLS := true
			if v, ok := c.Config["tls"]; ok {
				if b, err := strconv.ParseBool(v); err == nil {
					useTLS = b
				}
			}
			client := email.NewIMAPClient(c.BaseURL, c.Config["username"], secret, c.Config["mailbox"], useTLS)
			src = email.New(c.ID, client)
		default:
			log.Warn("skipping source of unknown type")
			continue
		}

		out = append(out, configuredSource{
			src:      src,
			interval: time.Duration(c.PollIntervalSec) * time.Second,
		})
	}
	return out
}

// newPoller registers every usable configured source, importing into imp.
// It returns nil when there is nothing to poll.
func newPoller(rt *runtime, imp intake.Importer) *intake.Poller {
	sources := buildSources(rt.cfg.Sources, rt.creds, rt.log.Named("intake"))
	if len(sources) == 0 {
		return nil
	}
	p := intake.NewPoller(imp, rt.log.Named("intake"))
	for _, s := range sources {
		p.Register(s.src, s.interval)
	}
	return p
}
