package backend

import "errors"

// ErrMalformedRow indicates a recordings row missing required fields or
// failing schema validation at the boundary.
var ErrMalformedRow = errors.New("malformed recording row")

// ErrProcessingRejected indicates the processing trigger returned
// success=false.
var ErrProcessingRejected = errors.New("processing request rejected")
