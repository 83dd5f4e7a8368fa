package core

import (
	"errors"
)

var (
	ErrContextLost = errors.New("gpu context lost")
	ErrNotReady    = errors.New("resource not ready")
	ErrDisposed    = errors.New("resource disposed")
	ErrUnknown     = errors.New("unknown")
)
