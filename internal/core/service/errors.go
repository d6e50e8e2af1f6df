package service

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrProductNotFound   = errors.New("product not found")
	ErrConflict          = errors.New("product conflict")
	ErrPriceMismatch     = errors.New("price mismatch")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrEmptyOrder        = errors.New("order has no lines")
	ErrRoutingFailed     = errors.New("routing failed")
)
