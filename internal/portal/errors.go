package portal

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
)

// StatusError reports a non-200 portal response.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("portal %s: unexpected status %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	if e.Op == opLogin {
		return common.ErrAuth
	}
	return common.ErrSubmission
}
