// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ardanlabs/powledger/business/sys/metrics"
	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/validate"
	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// txRules describes the acceptance rules for a transaction.
const txRules = "Amount must be positive and from/to addresses cannot be empty"

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Health reports the service is up.
func (h Handlers) Health(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := health{
		Status:  "healthy",
		Service: "powledger-api",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the full chain and the current difficulty.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	snap := h.State.Snapshot()

	resp := chain{
		Blocks:     snap.Blocks(),
		Difficulty: snap.Difficulty(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AddBlock mines a new block holding the submitted transactions. The batch
// is accepted all or nothing and the index of the first bad transaction is
// reported on failure.
func (h Handlers) AddBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var trans []tx
	if err := web.Decode(r, &trans); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	for i, tran := range trans {
		if err := validate.Check(tran); err != nil {
			return errs.NewTrustedAt(err, http.StatusBadRequest, i, txRules)
		}
	}

	h.Log.Infow("add block", "traceid", web.GetTraceID(ctx), "trans", len(trans))

	out, err := h.State.Append(toDBTxs(trans))
	if err != nil {
		var txe *database.TxError
		if errors.As(err, &txe) {
			return errs.NewTrustedAt(err, http.StatusBadRequest, txe.Index, txRules)
		}
		return fmt.Errorf("append: %w", err)
	}

	metrics.AddBlocks(ctx)

	resp := blockAdded{
		Message:           "Block added successfully",
		BlockHeight:       out.Number,
		CurrentDifficulty: out.Difficulty,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Validate runs the full chain validation.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	vr := h.State.VerifyChain()

	resp := validation{
		Valid:       vr.Err == nil,
		Message:     "Ledger is valid and integrity verified",
		ChainLength: vr.Blocks,
		Difficulty:  vr.Difficulty,
	}

	if vr.Err != nil {
		h.Log.Infow("validate", "traceid", web.GetTraceID(ctx), "ERROR", vr.Err)
		resp.Message = fmt.Sprintf("Ledger validation failed: %s", vr.Err)
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// LatestBlock returns the tip of the chain.
func (h Handlers) LatestBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	snap := h.State.Snapshot()

	block, exists := snap.LatestBlock()
	if !exists {
		return errs.NewTrusted(database.ErrEmptyChain, http.StatusInternalServerError)
	}

	resp := latestBlock{
		Block:             block,
		BlockNumber:       snap.Len() - 1,
		CurrentDifficulty: snap.Difficulty(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Difficulty returns the current difficulty.
func (h Handlers) Difficulty(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	diff, blocks := h.State.Difficulty()

	resp := difficulty{
		CurrentDifficulty: diff,
		TotalBlocks:       blocks,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// UpdateDifficulty changes the difficulty used for new blocks and for
// validation.
func (h Handlers) UpdateDifficulty(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var upd difficultyUpdate
	if err := web.Decode(r, &upd); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	old, err := h.State.SetDifficulty(upd.Difficulty)
	if err != nil {
		var de *state.DifficultyError
		if errors.As(err, &de) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("set difficulty: %w", err)
	}

	h.Log.Infow("update difficulty", "traceid", web.GetTraceID(ctx), "old", old, "new", upd.Difficulty)

	resp := difficultyUpdated{
		Message:       "Difficulty updated successfully",
		OldDifficulty: old,
		NewDifficulty: upd.Difficulty,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide events to a client. The prefix
// query parameter limits the stream to matching messages, multiple prefixes
// are separated by a comma.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var prefixes []string
	if p := r.URL.Query().Get("prefix"); p != "" {
		prefixes = strings.Split(p, ",")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID, prefixes...)
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
