package page

import "errors"

var (
	ErrAlreadyExists = errors.New("page already exists")
	ErrNotFound      = errors.New("page not found")
)
