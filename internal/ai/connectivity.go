package ai

import (
	"context"
	"net"
	"net/url"
	"time"
)

// Connectivity reports whether the network is reachable.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// AssumeOnline always reports connectivity.
type AssumeOnline struct{}

// Online implements Connectivity.
func (AssumeOnline) Online(context.Context) bool { return true }

// Offline never reports connectivity.
type Offline struct{}

// Online implements Connectivity.
func (Offline) Online(context.Context) bool { return false }

// DialProbe checks connectivity with a TCP dial to the endpoint host. No
// request is sent.
type DialProbe struct {
	Addr    string
	Timeout time.Duration
}

// NewDialProbe derives the probe address from an endpoint URL.
func NewDialProbe(endpoint string, timeout time.Duration) (*DialProbe, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	return &DialProbe{Addr: net.JoinHostPort(u.Hostname(), port), Timeout: timeout}, nil
}

// Online implements Connectivity.
func (p *DialProbe) Online(ctx context.Context) bool {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
