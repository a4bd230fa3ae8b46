package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrNoCards          = errors.New("no cards supplied")
	ErrSpreadNotFound   = errors.New("spread not found")
	ErrCardNotFound     = errors.New("card not found")
	ErrInvalidTopic     = errors.New("invalid topic")
	ErrInvalidQuestion  = errors.New("invalid question")
	ErrPremiumRequired  = errors.New("spread requires premium access")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrInvalidDate      = errors.New("invalid date")
	ErrPositionMismatch = errors.New("card position not declared by spread")
	ErrNotEnoughCards   = errors.New("deck has fewer cards than the spread requires")
	ErrDatabaseDisabled = errors.New("database not configured")
)
