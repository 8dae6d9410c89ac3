package service

import "errors"

var (
	ErrInvalidArgument  = errors.New("missing or invalid argument")
	ErrInvalidInput     = errors.New("the rating value is not correct")
	ErrPermissionDenied = errors.New("no authorization to access this item")
	ErrStorage          = errors.New("storage failure")
)
