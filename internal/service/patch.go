package service

import (
	"fmt"
	"time"
)

// changeSet collects the columns a partial update touches.
type changeSet map[string]any

func (c changeSet) set(column string, value any) {
	c[column] = value
}

// finalize rejects an empty update and stamps updated_at when the table has it.
func (c changeSet) finalize(stamp bool) (map[string]any, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	if stamp {
		c["updated_at"] = time.Now()
	}
	return c, nil
}
