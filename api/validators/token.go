package validators

import (
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid auth token")

// ParseBearer extracts the credential of an Authorization header value. The
// "Bearer" scheme is optional.
func ParseBearer(raw string) (string, error) {
	fields := strings.Fields(raw)
	switch {
	case len(fields) == 2 && strings.EqualFold(fields[0], "bearer"):
		return fields[1], nil
	case len(fields) == 1 && !strings.EqualFold(fields[0], "bearer"):
		return fields[0], nil
	}
	return "", ErrInvalidToken
}
