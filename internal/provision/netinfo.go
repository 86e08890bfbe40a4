package provision

import (
	"fmt"
	"net"
)

// PrimaryIP discovers the host's primary outbound IP address. No packet
// is sent; dialing UDP only selects the route.
func PrimaryIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil {
		return "127.0.0.1"
	}

	return addr.IP.String()
}

// ServiceURL formats the expected service URL for the given port
func ServiceURL(ip string, port int) string {
	return fmt.Sprintf("http://%s:%d", ip, port)
}
