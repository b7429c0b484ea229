package catalog

import "errors"

var (
	ErrShowtimeNotFound = errors.New("showtime not found")
	ErrSeatNotFound     = errors.New("seat not found")
)
