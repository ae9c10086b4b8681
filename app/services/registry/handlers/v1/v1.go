// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/startrail/starregistry/app/services/registry/handlers/v1/registrygrp"
	"github.com/startrail/starregistry/foundation/events"
	"github.com/startrail/starregistry/foundation/ledger/state"
	"github.com/startrail/starregistry/foundation/nameservice"
	"github.com/startrail/starregistry/foundation/web"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	reg := registrygrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/chain/height", reg.Height)
	app.Handle(http.MethodGet, version, "/chain/validate", reg.Validate)
	app.Handle(http.MethodPost, version, "/challenge/request", reg.RequestChallenge)
	app.Handle(http.MethodPost, version, "/star/submit", reg.SubmitStar)
	app.Handle(http.MethodGet, version, "/block/hash/:hash", reg.BlockByHash)
	app.Handle(http.MethodGet, version, "/block/number/:number", reg.BlockByNumber)
	app.Handle(http.MethodGet, version, "/stars/owner/:account", reg.StarsByOwner)
	app.Handle(http.MethodGet, version, "/events", reg.Events)
}
