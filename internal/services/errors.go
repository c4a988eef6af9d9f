package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks upstream faults worth retrying: network failures and
	// empty response bodies.
	ErrTransient = errors.New("transient failure")
	// ErrIdentity marks malformed identifiers and page locators without an
	// extension. Never retried.
	ErrIdentity = errors.New("identity error")
	// ErrConsistency marks an output-tree entry whose kind contradicts what the
	// expected path requires, which indicates external tampering.
	ErrConsistency = errors.New("consistency error")
	// ErrClosed marks operations refused because the process is shutting down.
	ErrClosed = errors.New("closed")
	// ErrPagination marks a chapter feed page that contradicts its own declared
	// total. The whole manga is aborted since enumeration cannot be trusted.
	ErrPagination = errors.New("pagination error")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
