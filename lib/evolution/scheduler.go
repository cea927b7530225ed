// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package evolution

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xenocore-ai/xenocore/lib/clock"
)

// VaultReader supplies the derived statistics a tick reads. The vault
// store satisfies it through a thin adapter at the interaction
// boundary.
type VaultReader interface {
	ReflectionStats() VaultStats
}

// Config holds the scheduler's timing and capacity knobs. Zero fields
// take the documented defaults.
type Config struct {
	// SilenceThreshold is how long the host must be silent before the
	// tick engine starts. Default 30 minutes.
	SilenceThreshold time.Duration

	// TickInterval is the period between reflection ticks once the
	// engine is running. Default 30 minutes.
	TickInterval time.Duration

	// PollInterval is the silence monitor's probe period. Default 60
	// seconds.
	PollInterval time.Duration

	// ProlongedSilence is the silence span that overrides every other
	// trigger. Default 4 hours.
	ProlongedSilence time.Duration

	// MaxPending caps the reflection queue; oldest entries are evicted
	// first. Default 20.
	MaxPending int

	// MaxDeliveryBatch bounds how many reflections one DrainPending
	// call hands out. Default 5.
	MaxDeliveryBatch int
}

func (c Config) withDefaults() Config {
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = 30 * time.Minute
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 30 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 60 * time.Second
	}
	if c.ProlongedSilence <= 0 {
		c.ProlongedSilence = 4 * time.Hour
	}
	if c.MaxPending <= 0 {
		c.MaxPending = 20
	}
	if c.MaxDeliveryBatch <= 0 {
		c.MaxDeliveryBatch = 5
	}
	return c
}

// State is the read-only scheduler snapshot exposed for observability
// surfaces.
type State struct {
	MonitorRunning  bool      `json:"monitor_running"`
	EngineRunning   bool      `json:"engine_running"`
	CycleCount      int       `json:"cycle_count"`
	PendingCount    int       `json:"pending_count"`
	TotalGenerated  int       `json:"total_generated"`
	LastHostContact time.Time `json:"last_host_contact"`
}

// Options configures a Scheduler.
type Options struct {
	Config Config

	// Vault supplies per-tick statistics. Required.
	Vault VaultReader

	// Clock drives both timers. Nil selects the real clock.
	Clock clock.Clock

	// Logger receives tick and lifecycle events. Nil selects
	// slog.Default().
	Logger *slog.Logger

	// OnReflection, when set, is invoked on its own goroutine for every
	// generated reflection. Fire and forget: the scheduler never waits
	// on it and a panic inside it is swallowed.
	OnReflection func(Reflection)
}

// engineHandle tracks a running tick engine goroutine.
type engineHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler is the two-level silence machine: a monitor goroutine that
// watches for host silence, and a tick engine goroutine it starts and
// stops. All queue and counter state lives behind one mutex.
type Scheduler struct {
	config       Config
	vault        VaultReader
	clock        clock.Clock
	logger       *slog.Logger
	onReflection func(Reflection)

	mu             sync.Mutex
	lastContact    time.Time
	cycleCount     int
	totalGenerated int
	pending        []Reflection
	monitor        *engineHandle
	engine         *engineHandle
}

// NewScheduler builds a stopped scheduler. Call Start to launch the
// silence monitor.
func NewScheduler(options Options) *Scheduler {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	s := &Scheduler{
		config:       options.Config.withDefaults(),
		vault:        options.Vault,
		clock:        options.Clock,
		logger:       options.Logger,
		onReflection: options.OnReflection,
	}
	s.lastContact = s.clock.Now()
	return s
}

// Start launches the silence monitor. Safe to call multiple times;
// subsequent calls while running are no-ops.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.monitor != nil {
		return
	}
	monitorContext, cancel := context.WithCancel(ctx)
	handle := &engineHandle{cancel: cancel, done: make(chan struct{})}
	s.monitor = handle
	go s.runMonitor(monitorContext, handle.done)
	s.logger.Info("silence monitor started",
		"poll_interval", s.config.PollInterval,
		"silence_threshold", s.config.SilenceThreshold,
	)
}

// runMonitor polls the silence duration and starts the tick engine
// once the threshold passes.
func (s *Scheduler) runMonitor(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := s.clock.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkSilence(ctx)
		}
	}
}

// checkSilence starts the tick engine when the host has been silent
// past the threshold. Idempotent: a running engine stays untouched.
func (s *Scheduler) checkSilence(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		return
	}
	silence := s.clock.Now().Sub(s.lastContact)
	if silence < s.config.SilenceThreshold {
		return
	}
	s.startEngineLocked(ctx)
	s.logger.Info("tick engine started", "silence", silence)
}

func (s *Scheduler) startEngineLocked(ctx context.Context) {
	engineContext, cancel := context.WithCancel(ctx)
	handle := &engineHandle{cancel: cancel, done: make(chan struct{})}
	s.engine = handle
	go s.runEngine(engineContext, handle.done)
}

// runEngine generates one reflection per tick until stopped.
func (s *Scheduler) runEngine(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := s.clock.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick synthesizes one reflection and queues it. A panic anywhere in
// the tick body is captured so the engine keeps ticking.
func (s *Scheduler) tick() {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error("reflection tick panicked", "panic", recovered)
		}
	}()

	stats := s.vault.ReflectionStats()

	s.mu.Lock()
	s.cycleCount++
	cycle := s.cycleCount
	now := s.clock.Now().UTC()
	silence := now.Sub(s.lastContact)

	trigger, content := selectReflection(silence, cycle, s.config.ProlongedSilence, stats)
	reflection := Reflection{
		ID:            newReflectionID(),
		Timestamp:     now,
		DateISO:       now.Format("2006-01-02"),
		Content:       content,
		Trigger:       trigger,
		VaultSnapshot: stats,
	}

	s.pending = append(s.pending, reflection)
	if overflow := len(s.pending) - s.config.MaxPending; overflow > 0 {
		s.pending = s.pending[overflow:]
	}
	s.totalGenerated++
	s.mu.Unlock()

	s.logger.Info("reflection generated",
		"id", reflection.ID,
		"trigger", string(trigger),
		"cycle", cycle,
		"pending", s.PendingCount(),
	)

	if s.onReflection != nil {
		go s.dispatchObserver(reflection)
	}
}

// dispatchObserver runs the observer hook in isolation. Its failure
// cannot affect the queue.
func (s *Scheduler) dispatchObserver(reflection Reflection) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Warn("reflection observer panicked", "panic", recovered)
		}
	}()
	s.onReflection(reflection)
}

// RecordHostActivity marks host contact: the silence clock restarts
// and a running tick engine stops with its cycle counter cleared.
// Pending reflections survive the reset.
func (s *Scheduler) RecordHostActivity() {
	s.mu.Lock()
	s.lastContact = s.clock.Now()
	s.cycleCount = 0
	engine := s.engine
	s.engine = nil
	s.mu.Unlock()

	if engine != nil {
		engine.cancel()
		<-engine.done
		s.logger.Info("tick engine stopped on host contact")
	}
}

// DrainPending removes and returns up to the delivery batch of the
// oldest pending reflections, marked delivered. An empty queue yields
// an empty slice; draining is never an error.
func (s *Scheduler) DrainPending() []Reflection {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := min(len(s.pending), s.config.MaxDeliveryBatch)
	if count == 0 {
		return nil
	}

	drained := make([]Reflection, count)
	copy(drained, s.pending[:count])
	s.pending = append([]Reflection(nil), s.pending[count:]...)
	for i := range drained {
		drained[i].Delivered = true
	}
	return drained
}

// PendingCount returns the queue length.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// State returns a read-only snapshot.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		MonitorRunning:  s.monitor != nil,
		EngineRunning:   s.engine != nil,
		CycleCount:      s.cycleCount,
		PendingCount:    len(s.pending),
		TotalGenerated:  s.totalGenerated,
		LastHostContact: s.lastContact,
	}
}

// Shutdown stops both timers and waits for their goroutines to exit.
// In-memory state, the pending queue included, is left as-is.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	monitor := s.monitor
	engine := s.engine
	s.monitor = nil
	s.engine = nil
	s.mu.Unlock()

	if engine != nil {
		engine.cancel()
		<-engine.done
	}
	if monitor != nil {
		monitor.cancel()
		<-monitor.done
	}
	s.logger.Info("evolution scheduler stopped")
}
