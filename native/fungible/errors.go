package fungible

import "errors"

var (
	ErrNotInitialised        = errors.New("fungible: token not initialised")
	ErrInsufficientBalance   = errors.New("fungible: insufficient balance")
	ErrInsufficientAllowance = errors.New("fungible: insufficient allowance")
	ErrArithmeticOverflow    = errors.New("fungible: arithmetic overflow")
)
