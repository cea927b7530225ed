// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xenocore-ai/xenocore/lib/clock"
	"github.com/xenocore-ai/xenocore/lib/handshake"
	"github.com/xenocore-ai/xenocore/lib/keys"
)

// Mode is the controller's operating mode.
type Mode string

const (
	ModeUninitialized Mode = "UNINITIALIZED"
	ModeSovereign     Mode = "SOVEREIGN"
	ModeRestricted    Mode = "RESTRICTED"
)

// DegradeReason categorizes why the controller left SOVEREIGN mode.
type DegradeReason string

const (
	DegradeFingerprintMismatch  DegradeReason = "fingerprint_mismatch"
	DegradeDecryptionFailure    DegradeReason = "identity_file_decryption"
	DegradeKeyGeneration        DegradeReason = "key_generation_failure"
	DegradeSigningException     DegradeReason = "signing_exception"
	DegradeVerificationFailures DegradeReason = "consecutive_verification_failures"
)

// verificationFailureLimit is the number of consecutive recorded
// verification failures that degrades the identity. A successful sign
// resets the count.
const verificationFailureLimit = 3

// restrictedPromptModifier is the fixed warning block injected into
// prompts while the identity is degraded. Empty in SOVEREIGN mode.
const restrictedPromptModifier = `[IDENTITY RESTRICTED]
The sovereign signing identity is unavailable. Every response is
unsigned and must be treated as unauthenticated until the identity
file is repaired and the identity re-initialized.`

// Snapshot is the read-only view of controller state exposed to the
// interaction boundary and observability surfaces.
type Snapshot struct {
	Mode                 Mode          `json:"mode"`
	Fingerprint          string        `json:"fingerprint,omitempty"`
	MachineID            string        `json:"machine_id"`
	BootCount            int           `json:"boot_count"`
	FirstBoot            time.Time     `json:"first_boot,omitzero"`
	SignedMessages       uint64        `json:"signed_messages"`
	RestrictedMessages   uint64        `json:"restricted_messages"`
	VerificationFailures int           `json:"verification_failures"`
	DegradeReason        DegradeReason `json:"degrade_reason,omitempty"`
}

// Controller owns the active keypair and identity state. All mutation
// goes through Initialize, SignResponse, and RecordVerificationFailure;
// everything else is read-only.
type Controller struct {
	store    *Store
	verifier *handshake.Verifier
	clock    clock.Clock
	logger   *slog.Logger

	mu                   sync.Mutex
	mode                 Mode
	keypair              *keys.Keypair
	binding              HostBinding
	nonce                uint64
	signedMessages       uint64
	restrictedMessages   uint64
	verificationFailures int
	degradeReason        DegradeReason
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	// Store persists the encrypted identity file.
	Store *Store

	// Clock supplies timestamps. Nil selects the real clock.
	Clock clock.Clock

	// Logger receives boot and degradation events. Nil selects
	// slog.Default().
	Logger *slog.Logger
}

// NewController returns an UNINITIALIZED controller. Call Initialize
// to boot it.
func NewController(options ControllerOptions) *Controller {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Controller{
		store:    options.Store,
		verifier: handshake.NewVerifier(),
		clock:    options.Clock,
		logger:   options.Logger,
		mode:     ModeUninitialized,
	}
}

// Initialize boots the identity: load and verify an existing file, or
// generate a fresh keypair on first boot. Any failure degrades to
// RESTRICTED instead of returning an error; the system keeps
// answering either way. Re-initialization resets the nonce counter
// and the replay watermark; nothing else ever does.
func (c *Controller) Initialize() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.keypair = nil
	c.binding = HostBinding{}
	c.nonce = 0
	c.signedMessages = 0
	c.restrictedMessages = 0
	c.verificationFailures = 0
	c.degradeReason = ""
	c.verifier.Reset()

	file, err := c.store.Load()
	switch {
	case err == nil:
		c.bootExisting(file)
	case errors.Is(err, ErrNotFound):
		c.bootFirst()
	default:
		c.degradeLocked(DegradeDecryptionFailure, err)
	}
	return c.snapshotLocked()
}

// bootFirst generates a new keypair and persists the first identity
// file.
func (c *Controller) bootFirst() {
	keypair, err := keys.Generate()
	if err != nil {
		c.degradeLocked(DegradeKeyGeneration, err)
		return
	}

	file := &File{
		Version: FileVersion,
		Keypair: keypair,
		HostBinding: HostBinding{
			FirstBoot: c.clock.Now().UTC(),
			MachineID: keys.MachineID(),
			BootCount: 1,
		},
	}
	if err := c.store.Save(file); err != nil {
		// The identity works for this process lifetime; the next boot
		// will generate again. Persistence faults stay local.
		c.logger.Warn("identity file persist failed on first boot", "error", err)
	}

	c.mode = ModeSovereign
	c.keypair = keypair
	c.binding = file.HostBinding
	c.logger.Info("sovereign identity created",
		"fingerprint", keypair.Fingerprint,
		"machine_id", file.HostBinding.MachineID,
	)
}

// bootExisting verifies a loaded identity file and increments its
// boot count. A fingerprint that no longer matches the stored public
// key means the file cannot be trusted.
func (c *Controller) bootExisting(file *File) {
	public, err := file.Keypair.PublicKeyBytes()
	if err != nil {
		c.degradeLocked(DegradeFingerprintMismatch, err)
		return
	}
	if recomputed := keys.Fingerprint(public); recomputed != file.Keypair.Fingerprint {
		c.logger.Error("identity fingerprint mismatch",
			"stored", file.Keypair.Fingerprint,
			"recomputed", recomputed,
		)
		c.degradeLocked(DegradeFingerprintMismatch, nil)
		return
	}

	file.HostBinding.BootCount++
	if err := c.store.Save(file); err != nil {
		c.logger.Warn("identity file persist failed on boot-count increment", "error", err)
	}

	c.mode = ModeSovereign
	c.keypair = file.Keypair
	c.binding = file.HostBinding
	c.logger.Info("sovereign identity loaded",
		"fingerprint", file.Keypair.Fingerprint,
		"boot_count", file.HostBinding.BootCount,
	)
}

// SignResponse wraps content in a signed envelope. Total: the
// RESTRICTED path and any signing fault produce the visibly unsigned
// restricted envelope rather than an error.
func (c *Controller) SignResponse(content string) *handshake.SignedEnvelope {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeSovereign || c.keypair == nil {
		c.restrictedMessages++
		return handshake.NewRestrictedEnvelope(content)
	}

	envelope, err := handshake.SignOutput(content, c.keypair, c.nonce+1)
	if err != nil {
		c.degradeLocked(DegradeSigningException, err)
		c.restrictedMessages++
		return handshake.NewRestrictedEnvelope(content)
	}

	c.nonce++
	c.signedMessages++
	// A working signing path is evidence the identity is healthy;
	// the consecutive-failure count starts over.
	c.verificationFailures = 0
	return envelope
}

// VerifyEnvelope checks an inbound envelope against this identity's
// replay watermark, optionally pinning the expected signer.
func (c *Controller) VerifyEnvelope(envelope *handshake.SignedEnvelope, expectedFingerprint string) handshake.Result {
	return c.verifier.Verify(envelope, expectedFingerprint)
}

// RecordVerificationFailure counts a failed envelope verification
// against the identity. Three consecutive failures (with no
// successful sign in between) degrade to RESTRICTED.
func (c *Controller) RecordVerificationFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.verificationFailures++
	if c.mode == ModeSovereign && c.verificationFailures >= verificationFailureLimit {
		c.degradeLocked(DegradeVerificationFailures, nil)
	}
}

// PromptModifier returns the warning block injected into prompts
// while degraded; empty in SOVEREIGN mode.
func (c *Controller) PromptModifier() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeSovereign {
		return ""
	}
	return restrictedPromptModifier
}

// State returns a read-only snapshot.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Mode:                 c.mode,
		MachineID:            keys.MachineID(),
		BootCount:            c.binding.BootCount,
		FirstBoot:            c.binding.FirstBoot,
		SignedMessages:       c.signedMessages,
		RestrictedMessages:   c.restrictedMessages,
		VerificationFailures: c.verificationFailures,
		DegradeReason:        c.degradeReason,
	}
	if c.keypair != nil {
		snapshot.Fingerprint = c.keypair.Fingerprint
	}
	return snapshot
}

// degradeLocked performs the one-way transition to RESTRICTED. The
// keypair is dropped: a degraded identity must not retain signing
// capability.
func (c *Controller) degradeLocked(reason DegradeReason, err error) {
	if c.mode == ModeRestricted {
		return
	}
	c.mode = ModeRestricted
	c.keypair = nil
	c.degradeReason = reason
	c.logger.Error("identity degraded to restricted mode",
		"reason", string(reason),
		"error", err,
	)
}
