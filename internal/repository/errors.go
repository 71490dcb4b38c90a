package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	// Discount validation failures. These are domain errors: batch jobs fold
	// them into their failed count, direct callers map them to 4xx.
	ErrInvalidCode  = errors.New("invalid discount code")
	ErrNotYetValid  = errors.New("discount not yet valid")
	ErrExpired      = errors.New("discount expired")
	ErrLimitReached = errors.New("discount usage limit reached")
	ErrBelowMinimum = errors.New("subtotal below minimum purchase amount")
)
