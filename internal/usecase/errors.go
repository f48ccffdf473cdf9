package usecase

import (
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fotmob-etl/internal/platform/rawjson"
)

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
	ErrMissingField          = rawjson.ErrMissingField
	ErrFieldType             = rawjson.ErrFieldType
)
