// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

// Package core is the interaction boundary: it wires the identity
// controller, the vault store, and the evolution scheduler into the
// surface the chat layer consumes. Each subsystem exclusively owns its
// state; the core only routes calls between them.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xenocore-ai/xenocore/lib/clock"
	"github.com/xenocore-ai/xenocore/lib/emotion"
	"github.com/xenocore-ai/xenocore/lib/evolution"
	"github.com/xenocore-ai/xenocore/lib/handshake"
	"github.com/xenocore-ai/xenocore/lib/identity"
	"github.com/xenocore-ai/xenocore/lib/vault"
)

// Options configures a Core. Identity and Vault are required; the
// evolution scheduler is built internally around them.
type Options struct {
	Identity *identity.Controller
	Vault    *vault.Store

	// Evolution holds the scheduler's timing knobs. Zero fields take
	// the documented defaults.
	Evolution evolution.Config

	// OnReflection, when set, observes every generated reflection.
	OnReflection func(evolution.Reflection)

	// Clock drives the scheduler. Nil selects the real clock.
	Clock clock.Clock

	// Logger receives boundary events. Nil selects slog.Default().
	Logger *slog.Logger
}

// Core exposes the entry points the rest of the application calls.
type Core struct {
	identity  *identity.Controller
	vault     *vault.Store
	scheduler *evolution.Scheduler
	logger    *slog.Logger
}

// vaultStatsReader adapts the vault store to the scheduler's
// VaultReader without the scheduler importing the vault's types.
type vaultStatsReader struct {
	store *vault.Store
}

func (r vaultStatsReader) ReflectionStats() evolution.VaultStats {
	stats := r.store.Stats()
	return evolution.VaultStats{
		TotalInteractions: stats.TotalInteractions,
		DominantEmotion:   string(stats.DominantEmotion),
		AverageEntropy:    stats.AverageEntropy,
	}
}

// New wires the subsystems together. The scheduler is created stopped;
// call StartEvolution to launch the silence monitor.
func New(options Options) *Core {
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	scheduler := evolution.NewScheduler(evolution.Options{
		Config:       options.Evolution,
		Vault:        vaultStatsReader{store: options.Vault},
		Clock:        options.Clock,
		Logger:       options.Logger,
		OnReflection: options.OnReflection,
	})
	return &Core{
		identity:  options.Identity,
		vault:     options.Vault,
		scheduler: scheduler,
		logger:    options.Logger,
	}
}

// InitializeIdentity boots or re-boots the sovereign identity and
// returns the resulting snapshot.
func (c *Core) InitializeIdentity() identity.Snapshot {
	return c.identity.Initialize()
}

// SignResponse wraps an outbound response in a signed envelope, or the
// visibly unsigned restricted envelope when the identity is degraded.
func (c *Core) SignResponse(content string) *handshake.SignedEnvelope {
	return c.identity.SignResponse(content)
}

// IdentityPromptModifier returns the prompt warning block for the
// current identity mode; empty while sovereign.
func (c *Core) IdentityPromptModifier() string {
	return c.identity.PromptModifier()
}

// RecordInteraction stores one host exchange in the vault and counts
// it as host contact for the silence machinery.
func (c *Core) RecordInteraction(hostInput, response string, entropy emotion.EntropyResult) {
	c.vault.RecordInteraction(hostInput, response, entropy)
	c.scheduler.RecordHostActivity()
}

// VaultHistorySummary renders the most recent n interactions plus the
// vault aggregates as prompt context. Empty for an empty vault.
func (c *Core) VaultHistorySummary(n int) string {
	return c.vault.HistorySummary(n)
}

// RecordHostActivity marks host contact without storing an
// interaction, for activity that carries no response worth keeping.
func (c *Core) RecordHostActivity() {
	c.scheduler.RecordHostActivity()
}

// ReflectionPromptBlock drains pending reflections and renders them as
// a prompt block. Empty when nothing is queued. Draining is
// destructive: a drained reflection is delivered exactly once.
func (c *Core) ReflectionPromptBlock() string {
	reflections := c.scheduler.DrainPending()
	if len(reflections) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[SHADOW REFLECTIONS]\nWhile the host was away, %d reflection(s) accumulated:\n", len(reflections))
	for _, reflection := range reflections {
		fmt.Fprintf(&b, "- [%s] (%s) %s\n", reflection.DateISO, reflection.Trigger, reflection.Content)
	}
	c.logger.Info("reflections delivered", "count", len(reflections))
	return b.String()
}

// StartEvolution launches the silence monitor. Idempotent.
func (c *Core) StartEvolution(ctx context.Context) {
	c.scheduler.Start(ctx)
}

// EvolutionState returns the scheduler's read-only snapshot.
func (c *Core) EvolutionState() evolution.State {
	return c.scheduler.State()
}

// IdentityState returns the identity controller's read-only snapshot.
func (c *Core) IdentityState() identity.Snapshot {
	return c.identity.State()
}

// VerifyEnvelope checks an inbound envelope against the identity's
// replay watermark.
func (c *Core) VerifyEnvelope(envelope *handshake.SignedEnvelope, expectedFingerprint string) handshake.Result {
	return c.identity.VerifyEnvelope(envelope, expectedFingerprint)
}

// Shutdown stops the evolution timers. Vault and identity state need
// no teardown: every mutation persists synchronously.
func (c *Core) Shutdown() {
	c.scheduler.Shutdown()
}
