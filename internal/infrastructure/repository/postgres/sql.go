package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// describeError adds the postgres code, constraint and detail to driver errors.
// The driver error stays in the chain.
func describeError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	parts := []string{"code=" + string(pqErr.Code)}
	if pqErr.Constraint != "" {
		parts = append(parts, "constraint="+pqErr.Constraint)
	}
	if detail := strings.TrimSpace(pqErr.Detail); detail != "" {
		parts = append(parts, "detail="+detail)
	}
	return fmt.Errorf("%s: %w", strings.Join(parts, " "), err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
