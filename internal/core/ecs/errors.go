package ecs

import "errors"

var (
	ErrUnknownStream     = errors.New("ecs: unknown stream")
	ErrDuplicateStream   = errors.New("ecs: stream already registered")
	ErrUnknownResource   = errors.New("ecs: unknown resource")
	ErrDuplicateResource = errors.New("ecs: resource already registered")
	ErrTypeMismatch      = errors.New("ecs: type mismatch")
	ErrAliasedStream     = errors.New("ecs: stream declared more than once in a pass")
	ErrUndeclaredAccess  = errors.New("ecs: access not declared by pass")
	ErrEntityOutOfRange  = errors.New("ecs: entity out of range")
)
