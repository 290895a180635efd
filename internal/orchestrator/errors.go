package orchestrator

import "errors"

var (
	// ErrInvalidRunLevel is returned by ProceedTo for negative targets.
	ErrInvalidRunLevel = errors.New("invalid run level")
	// ErrClosed is returned once the orchestrator has been closed.
	ErrClosed = errors.New("orchestrator closed")
	// ErrLevelTooHigh is returned by a Recorder for components tagged above its level.
	ErrLevelTooHigh = errors.New("component activated below its run level")
)
