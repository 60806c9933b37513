package assets

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrStorageFailure = errors.New("asset storage failure")

	ErrUnsupportedType = fmt.Errorf("%w: content type must be image/*", ErrInvalidInput)
	ErrEmptyUpload     = fmt.Errorf("%w: upload is empty", ErrInvalidInput)
	ErrTooLarge        = fmt.Errorf("%w: upload too large", ErrInvalidInput)
)
