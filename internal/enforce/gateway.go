package enforce

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"sync"
	"time"

	"git.home.luguber.info/inful/focusd/internal/logfields"
)

// Gateway is an HTTP forward proxy that enforces the rule table. Plain requests to a
// blocked host are redirected to the blocked page; CONNECT tunnels to a blocked host
// are refused with 403. Everything else passes through.
type Gateway struct {
	table      *MemoryTable
	blockedURL string
	proxy      *httputil.ReverseProxy
	dialer     net.Dialer
}

// NewGateway returns a gateway redirecting to blockedURL (an absolute URL on the admin server).
func NewGateway(table *MemoryTable, blockedURL string, transport http.RoundTripper) *Gateway {
	if transport == nil {
		transport = http.DefaultTransport
	}
	g := &Gateway{
		table:      table,
		blockedURL: blockedURL,
		dialer:     net.Dialer{Timeout: 10 * time.Second},
	}
	g.proxy = &httputil.ReverseProxy{
		// Forward-proxy requests already carry the absolute target URL.
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Warn("Gateway upstream error", logfields.Host(r.Host), logfields.Error(err))
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		},
	}
	return g
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}
	_, blocked := g.table.Match(host)

	if r.Method == http.MethodConnect {
		if blocked {
			slog.Info("Refused tunnel to blocked host", logfields.Host(host))
			http.Error(w, "blocked by focusd", http.StatusForbidden)
			return
		}
		g.tunnel(w, r)
		return
	}

	if blocked {
		slog.Debug("Redirecting blocked navigation", logfields.Host(host), logfields.Path(r.URL.Path))
		http.Redirect(w, r, g.blockedURL, http.StatusFound)
		return
	}
	if r.URL == nil || !r.URL.IsAbs() {
		http.Error(w, "focusd gateway only serves proxy requests", http.StatusBadRequest)
		return
	}
	g.proxy.ServeHTTP(w, r)
}

func (g *Gateway) tunnel(w http.ResponseWriter, r *http.Request) {
	upstream, err := g.dialer.DialContext(r.Context(), "tcp", r.Host)
	if err != nil {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	hj, ok := w.(http.Hijacker)
	if !ok {
		upstream.Close()
		http.Error(w, "hijacking not supported", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	client, _, err := hj.Hijack()
	if err != nil {
		upstream.Close()
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	pipe := func(dst, src net.Conn) {
		defer wg.Done()
		_, _ = io.Copy(dst, src)
		if c, ok := dst.(interface{ CloseWrite() error }); ok {
			_ = c.CloseWrite()
		} else {
			_ = dst.Close()
		}
	}
	go pipe(upstream, client)
	go pipe(client, upstream)
	go func() {
		wg.Wait()
		client.Close()
		upstream.Close()
	}()
}
