package quizzes

import "errors"

var (
	ErrNotFound       = errors.New("quiz not found")
	ErrUnavailable    = errors.New("quiz store unavailable")
	ErrWriteFailed    = errors.New("quiz write failed")
	ErrDataCorruption = errors.New("stored quiz is not a JSON object")
	ErrInvalidInput   = errors.New("invalid input")
)
