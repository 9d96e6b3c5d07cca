package controllers

import (
	"net/http"

	"github.com/storyreelhq/storyreel-backend/api/responses"
	"github.com/storyreelhq/storyreel-backend/pkg/config"
	"github.com/storyreelhq/storyreel-backend/pkg/db"
	pkgerrors "github.com/storyreelhq/storyreel-backend/pkg/errors"
	"github.com/storyreelhq/storyreel-backend/pkg/logger"
	"github.com/storyreelhq/storyreel-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StoryReel-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores. Either pinger may be nil when that
// dependency is not wired (sqlite dev mode runs without redis).
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StoryReel-Env", cfg.App.Env)

		statuses := map[string]string{}
		healthy := true

		if dbP != nil {
			statuses["postgres"] = "up"
			if err := dbP.Ping(r.Context()); err != nil {
				healthy = false
				statuses["postgres"] = "down"
				if logg != nil {
					ctx := logg.WithField(r.Context(), "dependency", "postgres")
					logg.Error(ctx, "health.dependency_down", err)
				}
			}
		}
		if redisP != nil {
			statuses["redis"] = "up"
			if err := redisP.Ping(r.Context()); err != nil {
				healthy = false
				statuses["redis"] = "down"
				if logg != nil {
					ctx := logg.WithField(r.Context(), "dependency", "redis")
					logg.Error(ctx, "health.dependency_down", err)
				}
			}
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(statuses)
			responses.WriteError(r.Context(), nil, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": statuses})
	}
}
