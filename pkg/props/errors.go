// Copyright 2026 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package props

import "errors"

var (
	// ErrNotFound means a file, model or column required to already exist is missing.
	ErrNotFound = errors.New("not found")
	// ErrStructure means a node expected to have one YAML kind has another
	// (e.g. a `models` key holding a mapping instead of a sequence).
	ErrStructure = errors.New("unexpected structure")
)
