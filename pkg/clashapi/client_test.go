package clashapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const proxiesBody = `{
  "proxies": {
    "DIRECT": {"type": "Direct"},
    "REJECT": {"type": "Reject"},
    "GLOBAL": {"type": "Selector"},
    "Proxy": {"type": "Selector"},
    "Auto": {"type": "URLTest"},
    "Backup": {"type": "Fallback"},
    "HK-01": {"type": "Shadowsocks"}
  }
}`

func TestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer pw", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"version":"v1.18.0","meta":true}`)
	}))
	defer srv.Close()

	info, err := NewClient(srv.URL, "pw", nil).Version(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "v1.18.0", info.Label())
	assert.True(t, info.Meta)
}

func TestVersionUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()

	_, err := NewClient(addr, "", nil).Version(context.Background())

	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestVersionTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL, "", nil).Version(ctx)

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestProxyGroups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/proxies", r.URL.Path)
		_, _ = io.WriteString(w, proxiesBody)
	}))
	defer srv.Close()

	groups, err := NewClient(srv.URL, "", nil).ProxyGroups(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Auto", "Backup", "Proxy"}, groups)
}

func TestProxyGroupsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "wrong", nil).ProxyGroups(context.Background())

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshProviderEscapesName(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", nil).RefreshProvider(context.Background(), "Rule-provider - Cloud_Proxy")

	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/providers/rules/Rule-provider%20-%20Cloud_Proxy", gotPath)
}

func TestRefreshProviderNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"resource not found"}`)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", nil).RefreshProvider(context.Background(), "missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestWaitReady(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"version":"x"}`)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", nil).WaitReady(context.Background(), 10*time.Second)

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWaitReadyGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", nil).WaitReady(context.Background(), 100*time.Millisecond)

	assert.ErrorIs(t, err, ErrRestartTimeout)
}
