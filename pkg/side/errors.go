// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package side

import "errors"

// ErrNullGatherBase is returned by memory readers when asked to
// resolve a null base pointer.
var ErrNullGatherBase = errors.New("null gather base pointer")
