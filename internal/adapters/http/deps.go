package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/riskmap/internal/adapters/postgres"
	"github.com/samirrijal/riskmap/internal/adapters/staticmap"
	"github.com/samirrijal/riskmap/internal/adapters/valkey"
	"github.com/samirrijal/riskmap/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions    *usecases.SessionService
	Checkpoints *usecases.CheckpointService
	StaticMap   *staticmap.Renderer
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}
