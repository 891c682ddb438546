// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package listener opens TCP listeners with an explicit accept backlog.
package listener

import (
	"context"
	"net"
)

// Listen opens a TCP listener on addr whose accept queue holds at most
// backlog pending connections. A backlog of zero, or less, uses the
// operating system maximum. On platforms without raw socket support
// the backlog is left to the operating system.
func Listen(ctx context.Context, addr string, backlog int) (net.Listener, error) {
	return listen(ctx, addr, backlog)
}

func resolve(ctx context.Context, addr string) (net.IP, int, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, 0, err
	}

	n, err := net.DefaultResolver.LookupPort(ctx, "tcp", port)
	if err != nil {
		return nil, 0, err
	}
	if len(host) == 0 {
		return nil, n, nil
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip, n, nil
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, 0, err
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip, n, nil
		}
	}
	return ips[0], n, nil
}
