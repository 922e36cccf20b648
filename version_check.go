package main

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// CheckMinVersion reports an error when this binary does not satisfy the
// configuration's min_version constraint. A bare version such as "1.2"
// means ">= 1.2". An empty constraint always passes.
func CheckMinVersion(constraint string) error {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return nil
	}
	if _, err := version.NewVersion(constraint); err == nil {
		constraint = ">= " + constraint
	}

	constraints, err := version.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid min_version %q: %w", constraint, err)
	}
	current, err := version.NewVersion(Version)
	if err != nil {
		return fmt.Errorf("invalid build version %q: %w", Version, err)
	}
	if !constraints.Check(current) {
		return fmt.Errorf("config requires version %s, this is %s", constraints, current)
	}
	return nil
}
