package domain

import "errors"

var (
	ErrInvalidID             = errors.New("invalid id")
	ErrInvalidName           = errors.New("invalid name")
	ErrInvalidTitle          = errors.New("invalid title")
	ErrInvalidState          = errors.New("invalid state")
	ErrInvalidPriority       = errors.New("invalid priority")
	ErrInvalidProcessID      = errors.New("invalid process id")
	ErrInvalidDateRange      = errors.New("due date before start date")
	ErrInvalidChecklistIndex = errors.New("invalid checklist index")
	ErrInvalidBody           = errors.New("invalid comment body")
)
