package repository

import "errors"

// ErrDuplicate is returned when a uniqueness constraint prevented an insert.
var ErrDuplicate = errors.New("record already exists")
