package model

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultStationPort is used when a configured address omits the port.
const DefaultStationPort = 58008

// ErrInvalidEndpoint is returned for addresses not shaped like ip-or-host[:port].
var ErrInvalidEndpoint = errors.New("invalid endpoint")

var validate = validator.New()

// Endpoint is a UDP destination.
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// String returns host:port.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ParseEndpoint parses "host" or "host:port". A bare host gets defaultPort.
func ParseEndpoint(s string, defaultPort int) (Endpoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Endpoint{}, fmt.Errorf("%w: empty address", ErrInvalidEndpoint)
	}

	host, port := s, defaultPort
	if strings.Contains(s, ":") {
		h, p, err := net.SplitHostPort(s)
		if err != nil {
			return Endpoint{}, fmt.Errorf("%w: %q: %v", ErrInvalidEndpoint, s, err)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Endpoint{}, fmt.Errorf("%w: %q: port is not a number", ErrInvalidEndpoint, s)
		}
		host, port = h, n
	}

	if port < 1 || port > 65535 {
		return Endpoint{}, fmt.Errorf("%w: %q: port %d out of range", ErrInvalidEndpoint, s, port)
	}
	if err := validate.Var(host, "required,ip|hostname_rfc1123"); err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q: bad host", ErrInvalidEndpoint, s)
	}
	return Endpoint{Host: host, Port: port}, nil
}

// NormalizeStation lower-cases and trims a station identifier.
func NormalizeStation(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
