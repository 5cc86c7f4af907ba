// Package simerrors collects the sentinel error kinds shared across the
// simulator core, so every package that can fail reports the same kind of
// error regardless of which layer detected it.
package simerrors

import "errors"

var (
	// ErrTopology indicates the network graph is malformed or inconsistent:
	// a non-positive-latency edge, an out-of-range packet loss, or a
	// disconnected graph under shortest-path mode. A HostOptions entry that
	// references an unknown graph node is reported as ErrNodeMissing.
	ErrTopology = errors.New("topology error")

	// ErrAddressInUse indicates an IPv4 address was already assigned to a
	// different graph node.
	ErrAddressInUse = errors.New("address already in use")

	// ErrReservedAddress indicates an IPv4 address falls in a reserved
	// range (0/8, 127/8, 224/4, or 255.255.255.255).
	ErrReservedAddress = errors.New("address is reserved")

	// ErrAmbiguousAddress indicates a HostOptions entry set a fixed IP
	// address with a quantity greater than one.
	ErrAmbiguousAddress = errors.New("ambiguous address for quantity > 1")

	// ErrNodeMissing indicates a HostOptions entry references a graph node
	// id that does not exist.
	ErrNodeMissing = errors.New("graph node missing")

	// ErrBandwidth indicates a host has no usable downstream or upstream
	// bandwidth, or specifies zero.
	ErrBandwidth = errors.New("bandwidth not available")

	// ErrPluginPath indicates a process's executable could not be
	// resolved.
	ErrPluginPath = errors.New("plugin path not resolvable")

	// ErrUnroutable indicates a queried address pair has no path between
	// them. Not fatal: returned to the caller, never logged as fatal.
	ErrUnroutable = errors.New("unroutable")

	// ErrInvariant indicates a programming error, such as calling
	// window-advancement APIs before run() has started.
	ErrInvariant = errors.New("invariant violated")

	// ErrDuplicate indicates a DNS hostname was registered more than once.
	ErrDuplicate = errors.New("duplicate registration")
)
