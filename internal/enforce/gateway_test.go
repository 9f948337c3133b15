package enforce

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/focusd/internal/focus"
)

const blockedURL = "http://127.0.0.1:8787/blocked"

func blockingTable(t *testing.T, domains ...string) *MemoryTable {
	t.Helper()
	tbl := NewMemoryTable()
	require.NoError(t, tbl.ReplaceRules(context.Background(), nil, focus.CompileRules(domains, "/blocked")))
	return tbl
}

func TestGateway_RedirectsBlockedHost(t *testing.T) {
	g := NewGateway(blockingTable(t, "youtube.com"), blockedURL, nil)

	for _, target := range []string{"http://www.youtube.com/watch?v=1", "http://youtube.com/"} {
		rec := httptest.NewRecorder()
		g.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusFound, rec.Code, target)
		assert.Equal(t, blockedURL, rec.Header().Get("Location"), target)
	}
}

func TestGateway_RefusesBlockedTunnel(t *testing.T) {
	g := NewGateway(blockingTable(t, "youtube.com"), blockedURL, nil)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, httptest.NewRequest(http.MethodConnect, "www.youtube.com:443", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGateway_PassesThroughOtherHosts(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "hello from upstream")
	}))
	defer upstream.Close()

	g := NewGateway(blockingTable(t, "youtube.com"), blockedURL, upstream.Client().Transport)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, upstream.URL+"/page", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello from upstream", rec.Body.String())
}

func TestGateway_IdleTableBlocksNothing(t *testing.T) {
	g := NewGateway(NewMemoryTable(), blockedURL, http.DefaultTransport)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/relative", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
