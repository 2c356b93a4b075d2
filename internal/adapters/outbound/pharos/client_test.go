package pharos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
)

const testAddr = "0xabcdef1234567890abcdef1234567890abcdef12"

const profileBody = `{"code":0,"data":{"user_info":{"TotalPoints":1500,"CreateTime":"2025-01-15T10:00:00Z"}}}`
const tasksBody = `{"code":0,"data":{"user_tasks":[{"TaskId":101,"CompleteTimes":3},{"TaskId":102,"CompleteTimes":7}]}}`

func newTestClient(t *testing.T, baseURL string, proxies outbound.ProxySource) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		BaseURL:         baseURL,
		BearerToken:     "test-token",
		RateLimitPerMin: 60000,
		Proxies:         proxies,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	if err == nil {
		t.Fatal("expected error without bearer token")
	}
}

func TestFetchWallet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		if got := r.URL.Query().Get("address"); got != testAddr {
			t.Errorf("unexpected address param: %q", got)
		}
		switch r.URL.Path {
		case "/user/profile":
			fmt.Fprint(w, profileBody)
		case "/user/tasks":
			fmt.Fprint(w, tasksBody)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	profile, tasks, err := client.FetchWallet(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if profile.TotalPoints != 1500 {
		t.Errorf("expected 1500 points, got %v", profile.TotalPoints)
	}
	if profile.MemberSince != "2025-01-15T10:00:00Z" {
		t.Errorf("unexpected member_since: %q", profile.MemberSince)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].TaskID != entity.TaskSwap || tasks[0].Count != 3 {
		t.Errorf("unexpected first task: %+v", tasks[0])
	}
}

func TestFetchWalletRetriesThenSucceeds(t *testing.T) {
	var failNext atomic.Bool
	failNext.Store(true)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failNext.CompareAndSwap(true, false) {
			http.Error(w, "upstream hiccup", http.StatusInternalServerError)
			return
		}
		switch r.URL.Path {
		case "/user/profile":
			fmt.Fprint(w, profileBody)
		case "/user/tasks":
			fmt.Fprint(w, tasksBody)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	profile, _, err := client.FetchWallet(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("expected second attempt to recover, got: %v", err)
	}
	if profile.TotalPoints != 1500 {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestFetchWalletBothAttemptsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	_, _, err := client.FetchWallet(context.Background(), testAddr)
	if !errors.Is(err, outbound.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetchWalletNonZeroCodeFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":401,"data":null}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	_, _, err := client.FetchWallet(context.Background(), testAddr)
	if !errors.Is(err, outbound.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable for non-zero code, got %v", err)
	}
}

func TestFetchWalletRequiresBothCalls(t *testing.T) {
	// Profile succeeds, tasks endpoint is broken.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/user/profile" {
			fmt.Fprint(w, profileBody)
			return
		}
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	_, _, err := client.FetchWallet(context.Background(), testAddr)
	if !errors.Is(err, outbound.ErrUpstreamUnavailable) {
		t.Errorf("expected failure when either call fails, got %v", err)
	}
}

func TestFetchWalletMissingDataPayload(t *testing.T) {
	// An unregistered wallet gets a bare success envelope with no data key.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	profile, tasks, err := client.FetchWallet(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("expected missing payload to serve a zero record, got: %v", err)
	}
	if profile.TotalPoints != 0 {
		t.Errorf("expected 0 points, got %v", profile.TotalPoints)
	}
	if profile.MemberSince != "" {
		t.Errorf("expected empty member_since, got %q", profile.MemberSince)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no tasks, got %+v", tasks)
	}
}

func TestFetchWalletCoercesLooseTypes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/profile":
			// Upstream occasionally returns points as a string.
			fmt.Fprint(w, `{"code":0,"data":{"user_info":{"TotalPoints":"lots","CreateTime":null}}}`)
		case "/user/tasks":
			// One malformed record must not abort the batch.
			fmt.Fprint(w, `{"code":0,"data":{"user_tasks":[{"TaskId":"bad"},{"TaskId":104,"CompleteTimes":1}]}}`)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	profile, tasks, err := client.FetchWallet(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if profile.TotalPoints != 0 {
		t.Errorf("expected non-numeric points coerced to 0, got %v", profile.TotalPoints)
	}
	if profile.MemberSince != "" {
		t.Errorf("expected null create time coerced to empty, got %q", profile.MemberSince)
	}
	if len(tasks) != 1 || tasks[0].TaskID != entity.TaskMintDomain {
		t.Errorf("expected malformed record skipped, got %+v", tasks)
	}
}
