// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xenocore-ai/xenocore/lib/clock"
	"github.com/xenocore-ai/xenocore/lib/handshake"
	"github.com/xenocore-ai/xenocore/lib/keys"
	"github.com/xenocore-ai/xenocore/lib/seal"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	sealer, err := seal.New("identity-test-secret")
	if err != nil {
		t.Fatalf("seal.New: %v", err)
	}
	return NewStore(filepath.Join(t.TempDir(), "identity.enc"), sealer)
}

func testController(t *testing.T, store *Store) *Controller {
	t.Helper()
	return NewController(ControllerOptions{
		Store: store,
		Clock: clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
}

func TestStoreLoadMissing(t *testing.T) {
	store := testStore(t)
	if _, err := store.Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load on missing file: got %v, want ErrNotFound", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := testStore(t)
	keypair, err := keys.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	saved := &File{
		Version: FileVersion,
		Keypair: keypair,
		HostBinding: HostBinding{
			FirstBoot: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			MachineID: "machine-a",
			BootCount: 4,
		},
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Keypair.Fingerprint != keypair.Fingerprint {
		t.Errorf("fingerprint: got %q, want %q", loaded.Keypair.Fingerprint, keypair.Fingerprint)
	}
	if loaded.HostBinding.BootCount != 4 {
		t.Errorf("boot count: got %d, want 4", loaded.HostBinding.BootCount)
	}
	if loaded.HostBinding.MachineID != "machine-a" {
		t.Errorf("machine id: got %q, want %q", loaded.HostBinding.MachineID, "machine-a")
	}
}

func TestStoreFileIsEncrypted(t *testing.T) {
	store := testStore(t)
	keypair, err := keys.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := store.Save(&File{Version: FileVersion, Keypair: keypair}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(store.path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(raw), keypair.PrivateKey) {
		t.Error("identity file contains the private key in the clear")
	}
	if !strings.Contains(string(raw), `"ciphertext"`) {
		t.Error("identity file is not a sealed envelope")
	}
}

func TestFirstBoot(t *testing.T) {
	store := testStore(t)
	controller := testController(t, store)

	snapshot := controller.Initialize()
	if snapshot.Mode != ModeSovereign {
		t.Fatalf("mode after first boot: got %s, want %s", snapshot.Mode, ModeSovereign)
	}
	if snapshot.BootCount != 1 {
		t.Errorf("boot count: got %d, want 1", snapshot.BootCount)
	}
	if len(snapshot.Fingerprint) != keys.FingerprintLength {
		t.Errorf("fingerprint length: got %d, want %d", len(snapshot.Fingerprint), keys.FingerprintLength)
	}
	if snapshot.FirstBoot.IsZero() {
		t.Error("first boot timestamp is zero")
	}

	// The identity file must survive the boot.
	file, err := store.Load()
	if err != nil {
		t.Fatalf("Load after first boot: %v", err)
	}
	if file.Keypair.Fingerprint != snapshot.Fingerprint {
		t.Errorf("persisted fingerprint: got %q, want %q", file.Keypair.Fingerprint, snapshot.Fingerprint)
	}
}

func TestRebootIncrementsBootCount(t *testing.T) {
	store := testStore(t)

	first := testController(t, store).Initialize()
	second := testController(t, store).Initialize()

	if second.Mode != ModeSovereign {
		t.Fatalf("mode after reboot: got %s, want %s", second.Mode, ModeSovereign)
	}
	if second.Fingerprint != first.Fingerprint {
		t.Errorf("fingerprint changed across reboot: %q then %q", first.Fingerprint, second.Fingerprint)
	}
	if second.BootCount != 2 {
		t.Errorf("boot count after reboot: got %d, want 2", second.BootCount)
	}
}

func TestCorruptFileDegrades(t *testing.T) {
	store := testStore(t)
	testController(t, store).Initialize()

	if err := os.WriteFile(store.path, []byte("not an envelope"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	snapshot := testController(t, store).Initialize()
	if snapshot.Mode != ModeRestricted {
		t.Fatalf("mode with corrupt file: got %s, want %s", snapshot.Mode, ModeRestricted)
	}
	if snapshot.DegradeReason != DegradeDecryptionFailure {
		t.Errorf("degrade reason: got %q, want %q", snapshot.DegradeReason, DegradeDecryptionFailure)
	}
	if snapshot.Fingerprint != "" {
		t.Errorf("restricted snapshot retains fingerprint %q", snapshot.Fingerprint)
	}
}

func TestFingerprintMismatchDegrades(t *testing.T) {
	store := testStore(t)
	keypair, err := keys.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	keypair.Fingerprint = strings.Repeat("0", keys.FingerprintLength)
	file := &File{
		Version:     FileVersion,
		Keypair:     keypair,
		HostBinding: HostBinding{BootCount: 1},
	}
	if err := store.Save(file); err != nil {
		t.Fatalf("Save: %v", err)
	}

	snapshot := testController(t, store).Initialize()
	if snapshot.Mode != ModeRestricted {
		t.Fatalf("mode with mismatched fingerprint: got %s, want %s", snapshot.Mode, ModeRestricted)
	}
	if snapshot.DegradeReason != DegradeFingerprintMismatch {
		t.Errorf("degrade reason: got %q, want %q", snapshot.DegradeReason, DegradeFingerprintMismatch)
	}
}

func TestSignResponseSovereign(t *testing.T) {
	controller := testController(t, testStore(t))
	snapshot := controller.Initialize()

	envelope := controller.SignResponse("first response")
	if handshake.IsRestricted(envelope) {
		t.Fatal("sovereign sign produced a restricted envelope")
	}
	if envelope.Content != "first response" {
		t.Errorf("content: got %q, want %q", envelope.Content, "first response")
	}
	if envelope.Fingerprint != snapshot.Fingerprint {
		t.Errorf("envelope fingerprint: got %q, want %q", envelope.Fingerprint, snapshot.Fingerprint)
	}
	if envelope.Nonce != 1 {
		t.Errorf("first nonce: got %d, want 1", envelope.Nonce)
	}

	result := controller.VerifyEnvelope(envelope, snapshot.Fingerprint)
	if !result.Valid {
		t.Fatalf("self-verification failed: reason %q", result.Reason)
	}

	if second := controller.SignResponse("second"); second.Nonce != 2 {
		t.Errorf("second nonce: got %d, want 2", second.Nonce)
	}

	state := controller.State()
	if state.SignedMessages != 2 {
		t.Errorf("signed messages: got %d, want 2", state.SignedMessages)
	}
	if state.RestrictedMessages != 0 {
		t.Errorf("restricted messages: got %d, want 0", state.RestrictedMessages)
	}
}

func TestSignResponseRestricted(t *testing.T) {
	store := testStore(t)
	if err := os.WriteFile(store.path, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	controller := testController(t, store)
	controller.Initialize()

	envelope := controller.SignResponse("still answering")
	if !handshake.IsRestricted(envelope) {
		t.Fatal("restricted controller produced a signed envelope")
	}
	if !strings.HasPrefix(envelope.Content, handshake.UnsignedPrefix) {
		t.Errorf("content %q lacks the unsigned prefix", envelope.Content)
	}
	if envelope.Signature != "" {
		t.Errorf("restricted envelope carries signature %q", envelope.Signature)
	}

	if got := controller.State().RestrictedMessages; got != 1 {
		t.Errorf("restricted messages: got %d, want 1", got)
	}
}

func TestConsecutiveVerificationFailuresDegrade(t *testing.T) {
	controller := testController(t, testStore(t))
	controller.Initialize()

	controller.RecordVerificationFailure()
	controller.RecordVerificationFailure()
	if got := controller.State().Mode; got != ModeSovereign {
		t.Fatalf("mode after two failures: got %s, want %s", got, ModeSovereign)
	}

	controller.RecordVerificationFailure()
	state := controller.State()
	if state.Mode != ModeRestricted {
		t.Fatalf("mode after three failures: got %s, want %s", state.Mode, ModeRestricted)
	}
	if state.DegradeReason != DegradeVerificationFailures {
		t.Errorf("degrade reason: got %q, want %q", state.DegradeReason, DegradeVerificationFailures)
	}

	// One-way: signing after degradation stays restricted.
	if !handshake.IsRestricted(controller.SignResponse("after degradation")) {
		t.Error("degraded controller produced a signed envelope")
	}
}

func TestSuccessfulSignResetsFailureCount(t *testing.T) {
	controller := testController(t, testStore(t))
	controller.Initialize()

	controller.RecordVerificationFailure()
	controller.RecordVerificationFailure()
	controller.SignResponse("healthy path")
	if got := controller.State().VerificationFailures; got != 0 {
		t.Fatalf("failures after successful sign: got %d, want 0", got)
	}

	controller.RecordVerificationFailure()
	controller.RecordVerificationFailure()
	if got := controller.State().Mode; got != ModeSovereign {
		t.Errorf("mode after reset plus two failures: got %s, want %s", got, ModeSovereign)
	}
}

func TestPromptModifier(t *testing.T) {
	controller := testController(t, testStore(t))
	controller.Initialize()
	if got := controller.PromptModifier(); got != "" {
		t.Errorf("sovereign prompt modifier: got %q, want empty", got)
	}

	controller.RecordVerificationFailure()
	controller.RecordVerificationFailure()
	controller.RecordVerificationFailure()
	got := controller.PromptModifier()
	if !strings.HasPrefix(got, "[IDENTITY RESTRICTED]") {
		t.Errorf("restricted prompt modifier: got %q", got)
	}
}

func TestReinitializeRecovers(t *testing.T) {
	store := testStore(t)
	controller := testController(t, store)
	first := controller.Initialize()

	controller.RecordVerificationFailure()
	controller.RecordVerificationFailure()
	controller.RecordVerificationFailure()
	if got := controller.State().Mode; got != ModeRestricted {
		t.Fatalf("mode before recovery: got %s, want %s", got, ModeRestricted)
	}

	// The identity file on disk is intact; re-initializing reloads it
	// and returns to SOVEREIGN with a fresh nonce sequence.
	recovered := controller.Initialize()
	if recovered.Mode != ModeSovereign {
		t.Fatalf("mode after re-initialize: got %s, want %s", recovered.Mode, ModeSovereign)
	}
	if recovered.Fingerprint != first.Fingerprint {
		t.Errorf("fingerprint after recovery: got %q, want %q", recovered.Fingerprint, first.Fingerprint)
	}
	if recovered.DegradeReason != "" {
		t.Errorf("degrade reason after recovery: got %q, want empty", recovered.DegradeReason)
	}
	if recovered.VerificationFailures != 0 {
		t.Errorf("failures after recovery: got %d, want 0", recovered.VerificationFailures)
	}

	envelope := controller.SignResponse("recovered")
	if envelope.Nonce != 1 {
		t.Errorf("nonce after recovery: got %d, want 1", envelope.Nonce)
	}
	if result := controller.VerifyEnvelope(envelope, recovered.Fingerprint); !result.Valid {
		t.Errorf("post-recovery verification failed: reason %q", result.Reason)
	}
}
