// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"os"
	"strings"
	"sync"
)

// machineIDPath is the systemd machine ID file. The leading source of
// host identity on Linux; absent inside some containers.
const machineIDPath = "/etc/machine-id"

var (
	machineIDOnce  sync.Once
	machineIDValue string
)

// MachineID returns a deterministic identifier for the host machine,
// stable across restarts: keyed BLAKE3 over /etc/machine-id (when
// present), the hostname, and platform attributes, truncated to 16
// hex characters. It is audit-binding material only, not a security
// boundary, and it never fails: any unreadable source is simply
// omitted from the hash input.
func MachineID() string {
	machineIDOnce.Do(func() {
		machineIDValue = truncatedKeyedHash(machineDomainKey, []byte(machineIDMaterial()))
	})
	return machineIDValue
}

// machineIDMaterial assembles the host attributes that feed the
// machine-ID hash, one per line, in fixed order.
func machineIDMaterial() string {
	var parts []string

	if raw, err := os.ReadFile(machineIDPath); err == nil {
		parts = append(parts, "machine-id:"+strings.TrimSpace(string(raw)))
	}
	if hostname, err := os.Hostname(); err == nil {
		parts = append(parts, "hostname:"+hostname)
	}
	parts = append(parts, platformAttributes()...)

	if len(parts) == 0 {
		// Pathological host with no readable identity at all. A fixed
		// marker keeps MachineID total; the ID is then shared by all
		// such hosts, which only affects audit labeling.
		parts = append(parts, "unknown-host")
	}
	return strings.Join(parts, "\n")
}
