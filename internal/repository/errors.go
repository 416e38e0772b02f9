package repository

import (
	"fmt"
	"strings"

	"github.com/weiawesome/duochat/internal/domain"
)

// handleError converts database-specific errors to domain errors.
func handleError(err error) error {
	errStr := err.Error()

	// postgres "duplicate key", sqlite "UNIQUE constraint", mysql "Duplicate entry"
	if strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "Duplicate entry") {
		if strings.Contains(errStr, "email") {
			return domain.ErrEmailExists
		}
		if strings.Contains(errStr, "username") {
			return domain.ErrUsernameExists
		}
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}

	return fmt.Errorf("%w: %v", domain.ErrInternal, err)
}
