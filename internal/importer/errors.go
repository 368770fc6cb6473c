package importer

import (
	"fmt"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
)

// RowError describes a skipped export row. It matches common.ErrParse.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *RowError) Unwrap() []error {
	return []error{common.ErrParse, e.Err}
}
