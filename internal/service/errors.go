package service

import "errors"

var (
	ErrAlreadyRunning    = errors.New("worker already running")
	ErrClosed            = errors.New("supervisor closed")
	ErrSpawnFailed       = errors.New("worker spawn failed")
	ErrTerminationFailed = errors.New("worker termination failed")
	ErrWaitTimeout       = errors.New("timed out waiting for worker exit")
)
