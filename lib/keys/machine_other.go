// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package keys

import "runtime"

// platformAttributes on non-Linux hosts uses the Go runtime's static
// platform identifiers. Less specific than uname, but stable.
func platformAttributes() []string {
	return []string{
		"goos:" + runtime.GOOS,
		"goarch:" + runtime.GOARCH,
	}
}
