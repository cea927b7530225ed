// Copyright 2026 The Xenocore Authors
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"strings"

	"golang.org/x/sys/unix"
)

// platformAttributes returns kernel identity from uname: sysname,
// machine (architecture), and OS release. These change rarely and only
// with deliberate host changes, which is acceptable churn for an
// audit-binding identifier.
func platformAttributes() []string {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return nil
	}
	return []string{
		"sysname:" + charsToString(utsname.Sysname[:]),
		"machine:" + charsToString(utsname.Machine[:]),
		"release:" + charsToString(utsname.Release[:]),
	}
}

// charsToString converts a NUL-padded utsname field to a string.
func charsToString(chars []byte) string {
	if index := strings.IndexByte(string(chars), 0); index >= 0 {
		return string(chars[:index])
	}
	return string(chars)
}
