package cache

import (
	"errors"
	"fmt"
	"net"
)

var ErrNoCache = errors.New("no cache configured")

// ResolveValkeyAddrs returns nodes as given, or resolves every address
// behind a headless service name.
func ResolveValkeyAddrs(nodes []string, service string) ([]string, error) {
	if len(nodes) > 0 {
		return nodes, nil
	}

	if service != "" {
		addrs, err := net.LookupHost(service)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", service, err)
		}
		var out []string
		for _, ip := range addrs {
			out = append(out, net.JoinHostPort(ip, "6379"))
		}
		return out, nil
	}

	return nil, nil
}

// New picks a driver: Valkey when nodes are known, Memcached otherwise.
func New(valkeyNodes []string, valkeyService, memcachedAddr string) (Cache, error) {
	addrs, err := ResolveValkeyAddrs(valkeyNodes, valkeyService)
	if err != nil {
		return nil, err
	}
	switch {
	case len(addrs) > 0:
		return NewValkey(addrs), nil
	case memcachedAddr != "":
		return NewMemcached(memcachedAddr), nil
	default:
		return nil, ErrNoCache
	}
}
