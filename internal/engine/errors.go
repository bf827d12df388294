package engine

import (
	"errors"

	"github.com/dukerupert/habitloop/internal/dateutil"
)

var (
	ErrNotFound          = errors.New("habit not found")
	ErrRemoteWriteFailed = errors.New("remote write failed")
	ErrRemoteReadFailed  = errors.New("remote read failed")
	ErrInvalidDate       = dateutil.ErrInvalidDate
)
