package application

import (
	"fmt"
	"strings"
)

// DependencyError reports a module dependency conflict: either unmet
// dependencies at enable/load time, or loaded dependents blocking a
// disable.
type DependencyError struct {
	// Module is the module the operation was attempted on.
	Module string
	// Missing lists declared dependencies that are not loaded.
	Missing []string
	// Dependents lists loaded modules that depend on Module.
	Dependents []string
}

func (e *DependencyError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("module %q requires %s", e.Module, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("module %q is required by %s", e.Module, strings.Join(e.Dependents, ", "))
}
