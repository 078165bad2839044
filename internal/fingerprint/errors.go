package fingerprint

import "errors"

var (
	errTooShort    = errors.New("fingerprint: decoded payload too short")
	errBadPrefix   = errors.New("fingerprint: prefix mismatch")
	errBadChecksum = errors.New("fingerprint: bad checksum")
)
