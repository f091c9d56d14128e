package lang

import "errors"

// ErrInvalid indicates a language code outside the supported set.
var ErrInvalid = errors.New("invalid language code")
