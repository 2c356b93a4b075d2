package memory

import (
	"context"
	"sync"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
)

// Compile-time check that PointsClient implements outbound.PointsClient.
var _ outbound.PointsClient = (*PointsClient)(nil)

// WalletFixture is a scripted upstream response for one wallet.
type WalletFixture struct {
	Profile entity.UserProfile
	Tasks   []entity.TaskCompletion
	Err     error
}

// PointsClient is a scripted implementation of the PointsClient port for
// testing. Fetches for unknown wallets fail as upstream-unavailable.
type PointsClient struct {
	mu       sync.Mutex
	fixtures map[string]WalletFixture

	// Fetches counts upstream calls so tests can assert that cache hits
	// never reach upstream.
	Fetches int
}

// NewPointsClient creates a scripted points client.
func NewPointsClient() *PointsClient {
	return &PointsClient{fixtures: make(map[string]WalletFixture)}
}

// Script registers the upstream response for a wallet.
func (c *PointsClient) Script(address string, fixture WalletFixture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fixtures[address] = fixture
}

// FetchWallet returns the scripted response for the wallet.
func (c *PointsClient) FetchWallet(ctx context.Context, address string) (*entity.UserProfile, []entity.TaskCompletion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Fetches++
	fixture, ok := c.fixtures[address]
	if !ok {
		return nil, nil, outbound.ErrUpstreamUnavailable
	}
	if fixture.Err != nil {
		return nil, nil, fixture.Err
	}
	profile := fixture.Profile
	return &profile, fixture.Tasks, nil
}
