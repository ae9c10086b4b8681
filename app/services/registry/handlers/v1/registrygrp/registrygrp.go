// Package registrygrp maintains the group of handlers for star registry
// access.
package registrygrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/startrail/starregistry/business/web/errs"
	"github.com/startrail/starregistry/foundation/events"
	"github.com/startrail/starregistry/foundation/ledger/challenge"
	"github.com/startrail/starregistry/foundation/ledger/database"
	"github.com/startrail/starregistry/foundation/ledger/state"
	"github.com/startrail/starregistry/foundation/nameservice"
	"github.com/startrail/starregistry/foundation/web"
)

// Handlers manages the set of star registry endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Height returns the current chain height.
func (h Handlers) Height(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Height uint64 `json:"height"`
	}{
		Height: h.State.Height(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Validate runs the full chain validation and returns every inconsistency.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	valErrors := h.State.ValidateChain()

	out := make([]validateError, len(valErrors))
	for i, ve := range valErrors {
		out[i] = validateError{
			Number: ve.Number,
			Error:  ve.Err.Error(),
		}
	}

	resp := struct {
		Valid  bool            `json:"valid"`
		Errors []validateError `json:"errors"`
	}{
		Valid:  len(out) == 0,
		Errors: out,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RequestChallenge issues a fresh ownership challenge for a wallet address.
func (h Handlers) RequestChallenge(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req challengeRequest
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	account, err := database.ToAccountID(req.Address)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("request challenge", "traceid", v.TraceID, "account", account, "name", h.NS.Lookup(account))

	resp := challengeResponse{
		Address: string(account),
		Message: h.State.RequestChallenge(account),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitStar runs the ownership gate and appends a new star block.
func (h Handlers) SubmitStar(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req submitStarRequest
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	account, err := database.ToAccountID(req.Address)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit star", "traceid", v.TraceID, "account", account, "name", h.NS.Lookup(account), "story", req.Star.Story)

	star := database.Star{
		RA:    req.Star.RA,
		Dec:   req.Star.Dec,
		Mag:   req.Star.Mag,
		Cen:   req.Star.Cen,
		Story: req.Star.Story,
	}

	blk, err := h.State.SubmitStar(account, req.Message, req.Signature, star)
	if err != nil {
		switch {
		case errors.Is(err, challenge.ErrMalformedMessage):
			return errs.NewTrusted(err, http.StatusBadRequest)
		case errors.Is(err, challenge.ErrExpired):
			return errs.NewTrusted(err, http.StatusBadRequest)
		case errors.Is(err, challenge.ErrInvalidSignature):
			return errs.NewTrusted(err, http.StatusUnauthorized)
		case errors.Is(err, state.ErrReplayed):
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return err
	}

	resp, err := toBlockModel(blk, h.NS)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// BlockByHash returns the block with the specified content hash.
func (h Handlers) BlockByHash(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "hash")

	blk, err := h.State.QueryBlockByHash(hash)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	resp, err := toBlockModel(blk, h.NS)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlockByNumber returns the block at the specified height.
func (h Handlers) BlockByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	num, err := strconv.ParseUint(web.Param(r, "number"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block number: %w", err), http.StatusBadRequest)
	}

	blk, err := h.State.QueryBlockByNumber(num)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	resp, err := toBlockModel(blk, h.NS)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// StarsByOwner returns the stars claimed by the specified wallet address.
// No claims yields an empty list, not an error.
func (h Handlers) StarsByOwner(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account, err := database.ToAccountID(web.Param(r, "account"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	stars, err := h.State.QueryStarsByOwner(account)
	if err != nil {
		return err
	}

	out := make([]star, len(stars))
	for i, st := range stars {
		out[i] = star{
			RA:    st.RA,
			Dec:   st.Dec,
			Mag:   st.Mag,
			Cen:   st.Cen,
			Story: st.Story,
		}
	}

	resp := struct {
		Owner string `json:"owner"`
		Name  string `json:"name"`
		Stars []star `json:"stars"`
	}{
		Owner: string(account),
		Name:  h.NS.Lookup(account),
		Stars: out,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
