package seed

import "errors"

// ErrSeed is returned for unreadable or invalid seed documents.
var ErrSeed = errors.New("invalid seed")
