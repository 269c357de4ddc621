package models

import "errors"

var (
	ErrRedisGet = errors.New("redis get error")
	ErrRedisSet = errors.New("redis set error")
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotStarted = errors.New("session has not started yet")
	ErrSessionEnded      = errors.New("session has already ended")
)

var (
	ErrStudentNotFound  = errors.New("unknown device")
	ErrMissingFields    = errors.New("missing required fields")
	ErrUntrustedNetwork = errors.New("must be on approved network")
	ErrUnauthorized     = errors.New("unauthorized")
)

var (
	ErrDatabaseQuery  = errors.New("database query error")
	ErrDatabaseInsert = errors.New("database insert error")
	ErrRecordNotFound = errors.New("record not found")
)
