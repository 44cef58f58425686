// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package version contains version information that is set at build time.
package version

import (
	"runtime"
)

// Version is the canonical version of Prolite.
var Version = "0.1.0-dev"

// Vcs is set to the commit hash of the build.
var Vcs = ""

// Timestamp is set to the build time.
var Timestamp = ""

// Hostname is set to the hostname of the build machine.
var Hostname = ""

// GoVersion is the version of Go this was built with.
var GoVersion = runtime.Version()
