// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns transport failures into troubleshooting hints.
// Workflow failures already carry a generic reason; the hints here are printed
// underneath it so the user knows whether to check the network, the server
// address or the backend itself.
package httperrors

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	"querymind/cli/internal/backend"
)

// Category is a coarse classification of a transport failure.
type Category int

const (
	Unknown Category = iota
	Timeout
	DNS
	Refused
	TLS
	Server
	Unauthorized
)

func (c Category) String() string {
	switch c {
	case Timeout:
		return "timeout"
	case DNS:
		return "dns"
	case Refused:
		return "connection refused"
	case TLS:
		return "tls"
	case Server:
		return "server error"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Classify inspects err and its chain. Status codes win over message sniffing.
func Classify(err error) Category {
	if err == nil {
		return Unknown
	}

	var te *backend.TransportError
	if errors.As(err, &te) && !te.Network() {
		switch {
		case te.Unauthorized():
			return Unauthorized
		case te.StatusCode >= 500:
			return Server
		}
		return Unknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return DNS
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return Refused
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "timeout"):
		return Timeout
	case strings.Contains(lower, "connection refused"):
		return Refused
	case strings.Contains(lower, "tls"), strings.Contains(lower, "x509"), strings.Contains(lower, "certificate"):
		return TLS
	}
	return Unknown
}

// Hints returns troubleshooting lines for a category. host names the server in the text.
func Hints(c Category, host string) []string {
	switch c {
	case Timeout:
		return []string{
			"The server took too long to respond.",
			"Large schemas and broad questions can take a while; raise request_timeout in the config if this keeps happening.",
		}
	case DNS:
		return []string{
			"Cannot resolve " + host + ".",
			"Check the server address with `querymind status` or pass --server.",
		}
	case Refused:
		return []string{
			"Nothing is listening on " + host + ".",
			"Make sure the QueryMind backend is running and the port is right.",
		}
	case TLS:
		return []string{
			"Secure connection to " + host + " failed.",
			"Check the certificate, any HTTPS proxy, and your system clock.",
		}
	case Server:
		return []string{
			"The QueryMind backend hit an internal error.",
			"This is not a problem with your input; try again shortly.",
		}
	case Unauthorized:
		return []string{"Your session is no longer valid. Run `querymind login`."}
	}
	return nil
}

// Show prints the hints for err, if any. It returns true when something was printed.
func Show(err error, serverURL string) bool {
	hints := Hints(Classify(err), HostOf(serverURL))
	if len(hints) == 0 {
		return false
	}
	for _, h := range hints {
		pterm.Println("  " + h)
	}
	pterm.Println()
	return true
}

// HostOf extracts host[:port] from a URL for messages.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "the server"
	}
	return u.Host
}
