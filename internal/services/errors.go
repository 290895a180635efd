package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for names the registry does not know.
	ErrNotFound = errors.New("component not found")
	// ErrAlreadyRegistered is returned when a name is registered twice.
	ErrAlreadyRegistered = errors.New("component already registered")
	// ErrForeignComponent is returned for components that were not created by this registry.
	ErrForeignComponent = errors.New("component does not belong to this registry")
	// ErrResolving is returned when a component is needed again while it is still being started.
	ErrResolving = errors.New("component is already being resolved")
	// ErrRunLevelDependency is returned when a plain component needs a run-level
	// component that only an orchestrator may start.
	ErrRunLevelDependency = errors.New("plain component depends on a run-level component")
)

// InstantiationError reports that a component could not be brought up.
type InstantiationError struct {
	Component string
	Err       error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("failed to instantiate %s: %v", e.Component, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// ReleaseError reports that a component could not be released cleanly.
type ReleaseError struct {
	Component string
	Err       error
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("failed to release %s: %v", e.Component, e.Err)
}

func (e *ReleaseError) Unwrap() error {
	return e.Err
}
