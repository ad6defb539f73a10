package sandbox

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// NetworkMode is the resolved form of a skill's network policy (spec.md
// §4.6's "Network policy" paragraph).
type NetworkMode int

const (
	NetworkBlocked NetworkMode = iota // disabled: new network namespace, no egress
	NetworkOpen                       // wildcard "*": share host network
	NetworkFiltered                   // explicit domain list: per-invocation filtering proxy
)

func resolveNetworkMode(enabled bool, outbound []string) (NetworkMode, []string) {
	if !enabled {
		return NetworkBlocked, nil
	}
	for _, d := range outbound {
		if d == "*" {
			return NetworkOpen, nil
		}
	}
	if len(outbound) == 0 {
		return NetworkOpen, nil
	}
	return NetworkFiltered, outbound
}

// filteringProxy is a per-invocation forward proxy that only permits
// CONNECT/requests to hosts matching its domain allow-list. Unlike a
// client-side SOCKS dialer (golang.org/x/net/proxy's role), this acts as
// the server the sandboxed child's HTTP_PROXY/HTTPS_PROXY point at, so it
// is built on stdlib net/http + net — no pack library implements a proxy
// server, only proxy-client dialing.
type filteringProxy struct {
	listener     net.Listener
	server       *http.Server
	allowedHosts map[string]bool
}

func newFilteringProxy(domains []string) (*filteringProxy, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("sandbox: proxy listen: %w", err)
	}

	allowed := make(map[string]bool, len(domains))
	for _, d := range domains {
		allowed[strings.ToLower(strings.TrimSpace(d))] = true
	}

	p := &filteringProxy{listener: listener, allowedHosts: allowed}
	p.server = &http.Server{Handler: http.HandlerFunc(p.handle)}
	go p.server.Serve(listener)
	return p, nil
}

func (p *filteringProxy) Addr() string { return p.listener.Addr().String() }

func (p *filteringProxy) Close(ctx context.Context) error {
	return p.server.Shutdown(ctx)
}

func (p *filteringProxy) hostAllowed(host string) bool {
	h := host
	if idx := strings.LastIndex(h, ":"); idx >= 0 {
		h = h[:idx]
	}
	h = strings.ToLower(h)
	if p.allowedHosts[h] {
		return true
	}
	for domain := range p.allowedHosts {
		if strings.HasPrefix(domain, "*.") && strings.HasSuffix(h, domain[1:]) {
			return true
		}
	}
	return false
}

func (p *filteringProxy) handle(w http.ResponseWriter, r *http.Request) {
	if !p.hostAllowed(r.Host) {
		http.Error(w, fmt.Sprintf("sandbox: network egress to %q is not in the allow-list", r.Host), http.StatusForbidden)
		return
	}

	if r.Method == http.MethodConnect {
		p.handleConnect(w, r)
		return
	}
	p.handleForward(w, r)
}

func (p *filteringProxy) handleConnect(w http.ResponseWriter, r *http.Request) {
	dest, err := net.DialTimeout("tcp", r.Host, 10*time.Second)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer dest.Close()

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "sandbox: proxy does not support hijacking", http.StatusInternalServerError)
		return
	}
	client, _, err := hijacker.Hijack()
	if err != nil {
		return
	}
	defer client.Close()

	fmt.Fprintf(client, "HTTP/1.1 200 Connection Established\r\n\r\n")

	done := make(chan struct{}, 2)
	go func() { io.Copy(dest, client); done <- struct{}{} }()
	go func() { io.Copy(client, dest); done <- struct{}{} }()
	<-done
}

func (p *filteringProxy) handleForward(w http.ResponseWriter, r *http.Request) {
	outReq := r.Clone(r.Context())
	outReq.RequestURI = ""

	resp, err := http.DefaultTransport.RoundTrip(outReq)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

// proxyEnv returns the HTTP_PROXY/HTTPS_PROXY/ALL_PROXY entries to inject
// into the child's environment.
func (p *filteringProxy) proxyEnv() []string {
	url := "http://" + p.Addr()
	return []string{
		"HTTP_PROXY=" + url,
		"HTTPS_PROXY=" + url,
		"ALL_PROXY=" + url,
	}
}
