// Package outbound defines the outbound port interfaces.
package outbound

import "errors"

// ErrUpstreamUnavailable wraps terminal upstream fetch failures: both
// attempts of the fetch state machine were exhausted without a pair of
// successful responses.
var ErrUpstreamUnavailable = errors.New("upstream points API unavailable")

// ErrStoreUnavailable wraps failures to reach the shared store. Cache and
// rank operations degrade to absent/disabled on it rather than failing the
// request being served.
var ErrStoreUnavailable = errors.New("shared store unavailable")
