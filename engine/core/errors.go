package core

import (
	"errors"
)

var (
	ErrUnknown             = errors.New("unknown")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrNoLoader            = errors.New("no loader registered for resource type")
	ErrInvalidAsset        = errors.New("invalid asset data")
	ErrJobQueueFull        = errors.New("job queue is full")
	ErrSystemShutdown      = errors.New("system already shut down")
	ErrBackendNotAvailable = errors.New("renderer backend not available")
)
