package collyfetcher

import (
	"fmt"
	"net"
	"syscall"
)

// blockedAddressError is returned when a resolved address is not publicly routable.
type blockedAddressError struct {
	host string
}

func (e *blockedAddressError) Error() string {
	return fmt.Sprintf("refusing to dial non-public address %s", e.host)
}

// guardDial runs after DNS resolution, so it also catches public names that
// resolve to private or loopback addresses.
func guardDial(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return &blockedAddressError{host: host}
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return &blockedAddressError{host: host}
	}
	return nil
}
