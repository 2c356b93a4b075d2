package outbound

import (
	"context"
	"net/url"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
)

// PointsClient fetches a wallet's raw profile and task-completion data from
// the upstream points API.
//
// Implementations issue the two upstream calls concurrently and require both
// to succeed before returning. Transient failures are retried per the
// fetcher's attempt state machine; terminal failure is reported as a typed
// error wrapping ErrUpstreamUnavailable, never a panic.
type PointsClient interface {
	FetchWallet(ctx context.Context, address string) (*entity.UserProfile, []entity.TaskCompletion, error)
}

// ProxySource hands out outbound proxies for upstream requests.
type ProxySource interface {
	// Next returns a proxy URL to route the next request through, or nil
	// when no proxy is available and the request should go direct.
	Next() *url.URL

	// Size returns how many proxies are in the pool.
	Size() int
}
