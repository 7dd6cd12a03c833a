package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidKey      = errors.New("invalid column key")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidPosition = errors.New("invalid position")
	ErrItemNotFound    = errors.New("item not found")
	ErrColumnNotFound  = errors.New("column not found")
)
