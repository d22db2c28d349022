package calculator

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptyRates      = fmt.Errorf("%w: empty rate list", ErrInvalidArgument)
	ErrZeroRate        = fmt.Errorf("%w: zero reference rate", ErrInvalidArgument)

	ErrUnknownStrategy  = errors.New("unknown calculator strategy")
	ErrOperationMissing = errors.New("calculator operation missing")
	ErrMalformedResult  = errors.New("malformed calculator result")
)
