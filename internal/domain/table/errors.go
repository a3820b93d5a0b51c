package table

import crerr "github.com/cockroachdb/errors"

var (
	ErrNotFound     = crerr.New("entity not found")
	ErrConflict     = crerr.New("entity already exists")
	ErrAuth         = crerr.New("table store authentication failed")
	ErrDisconnected = crerr.New("table store is not connected")
	ErrInvalidRow   = crerr.New("invalid row")
	ErrUnsupported  = crerr.New("operation not supported by backend")
)
