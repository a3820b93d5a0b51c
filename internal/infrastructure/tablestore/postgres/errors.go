package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
)

const (
	codeUniqueViolation       = "23505"
	classInvalidAuthorization = "28"
	classConnectionException  = "08"
	codeInsufficientPrivilege = "42501"

	// database/sql does not export its closed-pool error.
	msgDatabaseClosed = "sql: database is closed"
)

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) || strings.Contains(err.Error(), msgDatabaseClosed) {
		return fmt.Errorf("%w: %w", table.ErrDisconnected, err)
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch {
	case pqErr.Code == codeUniqueViolation:
		return fmt.Errorf("%w: %w", table.ErrConflict, err)
	case pqErr.Code.Class() == classInvalidAuthorization, pqErr.Code == codeInsufficientPrivilege:
		return fmt.Errorf("%w: %w", table.ErrAuth, err)
	case pqErr.Code.Class() == classConnectionException:
		return fmt.Errorf("%w: %w", table.ErrDisconnected, err)
	default:
		return err
	}
}
