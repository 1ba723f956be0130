package zorder

import (
	"errors"
	"fmt"

	"github.com/jmylchreest/zorder/internal/view"
)

var (
	// ErrMissingHost is returned when a registry is created without a host.
	ErrMissingHost = errors.New("zorder: missing required host")

	// ErrNilView is returned when a nil view is passed to SetPriority.
	ErrNilView = errors.New("zorder: nil view")

	// ErrRegistryClosed is returned for writes after Close.
	ErrRegistryClosed = errors.New("zorder: registry is closed")
)

// ContractError reports a notification for a view the registry does not
// track, meaning a subscription outlived its entry.
type ContractError struct {
	Op   string
	View view.View
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("zorder: %s notification for untracked view %s", e.Op, view.NameOf(e.View))
}
