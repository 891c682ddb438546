// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build linux

package listener

import (
	"context"
	"errors"
	"net"
	"os"

	"github.com/z5labs/picoserve/internal/try"

	"golang.org/x/sys/unix"
)

func listen(ctx context.Context, addr string, backlog int) (net.Listener, error) {
	ip, port, err := resolve(ctx, addr)
	if err != nil {
		return nil, err
	}
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}

	fd, sa, err := socket(ip, port)
	if err != nil {
		return nil, err
	}

	err = bindAndListen(fd, sa, backlog)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	// net.FileListener dups the descriptor so the file is always closed here.
	f := os.NewFile(uintptr(fd), "tcp:"+addr)
	ln, err := net.FileListener(f)
	try.Close(&err, f)
	if err != nil && ln != nil {
		ln.Close()
		return nil, err
	}
	return ln, err
}

func bindAndListen(fd int, sa unix.Sockaddr, backlog int) error {
	err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	if err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	err = unix.Bind(fd, sa)
	if err != nil {
		return os.NewSyscallError("bind", err)
	}
	err = unix.Listen(fd, backlog)
	if err != nil {
		return os.NewSyscallError("listen", err)
	}
	return nil
}

// socket creates a non-blocking stream socket for ip. A nil or IPv6
// unspecified ip listens dual stack, falling back to IPv4 only when
// the host has no IPv6 support.
func socket(ip net.IP, port int) (int, unix.Sockaddr, error) {
	if ip4 := ip.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], ip4)
		fd, err := newSocket(unix.AF_INET)
		return fd, sa, err
	}

	sa := &unix.SockaddrInet6{Port: port}
	if ip != nil {
		copy(sa.Addr[:], ip.To16())
	}
	fd, err := newSocket(unix.AF_INET6)
	if err != nil {
		if ip == nil && errors.Is(err, unix.EAFNOSUPPORT) {
			fd, err = newSocket(unix.AF_INET)
			return fd, &unix.SockaddrInet4{Port: port}, err
		}
		return -1, nil, err
	}
	if ip == nil || ip.IsUnspecified() {
		err = unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0)
		if err != nil {
			unix.Close(fd)
			return -1, nil, os.NewSyscallError("setsockopt", err)
		}
	}
	return fd, sa, nil
}

func newSocket(family int) (int, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	return fd, nil
}
