// Package proxypool loads and rotates outbound HTTP proxies.
//
// Proxies are configured as newline-separated host:port:username:password
// entries (the password may itself contain colons). Blank lines and lines
// starting with '#' are skipped, as are entries that fail validation. An
// empty pool is not an error; callers fall back to direct connections.
package proxypool

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// Pool is a validated set of outbound proxies with random rotation.
type Pool struct {
	mu      sync.Mutex
	proxies []*url.URL
	rng     *rand.Rand
}

// Load parses the raw proxy list and returns a pool of the valid entries.
func Load(raw string, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}

	pool := &Pool{rng: rand.New(rand.NewSource(rand.Int63()))}
	raw = strings.ReplaceAll(raw, `\n`, "\n")

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxy, err := parseLine(line)
		if err != nil {
			logger.Warn("skipping invalid proxy entry", "error", err)
			continue
		}
		pool.proxies = append(pool.proxies, proxy)
	}

	if len(pool.proxies) > 0 {
		logger.Info("loaded outbound proxies", "count", len(pool.proxies))
	}
	return pool
}

// parseLine parses one host:port:username:password entry.
func parseLine(line string) (*url.URL, error) {
	parts := strings.SplitN(line, ":", 4)
	if len(parts) < 4 {
		return nil, fmt.Errorf("expected host:port:username:password, got %q", line)
	}
	host, portStr, username, password := parts[0], parts[1], parts[2], parts[3]

	if host == "" || username == "" {
		return nil, fmt.Errorf("empty host or username in %q", line)
	}
	hostChars := strings.NewReplacer(".", "", "-", "").Replace(host)
	for _, r := range hostChars {
		if !isAlphanumeric(r) {
			return nil, fmt.Errorf("invalid host %q", host)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid port %q", portStr)
	}

	return &url.URL{
		Scheme: "http",
		User:   url.UserPassword(username, password),
		Host:   fmt.Sprintf("%s:%d", host, port),
	}, nil
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// Next returns a random proxy from the pool, or nil when the pool is empty.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.proxies) == 0 {
		return nil
	}
	return p.proxies[p.rng.Intn(len(p.proxies))]
}

// Size returns how many proxies are in the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}
