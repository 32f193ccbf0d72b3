package usgs

import (
	"context"
	"net"
	"time"
)

// Probe reports whether the feed host is reachable. It answers the display
// layer's "is the network up" question when a load returns nothing.
type Probe struct {
	addr    string
	timeout time.Duration
	dialer  *net.Dialer
}

// NewProbe creates a probe for the host of feedURL. The port defaults to the
// scheme's well-known port.
func NewProbe(feedURL string, timeout time.Duration) (*Probe, error) {
	u, err := parseHTTPURL(feedURL)
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
	return &Probe{
		addr:    net.JoinHostPort(u.Hostname(), port),
		timeout: timeout,
		dialer:  &net.Dialer{},
	}, nil
}

// Available dials the feed host and closes the connection straight away.
func (p *Probe) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
