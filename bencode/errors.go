package bencode

import "errors"

// ErrMalformed is the sentinel wrapped by every decode-time error. Callers
// use errors.Is(err, bencode.ErrMalformed) to detect a structural failure as
// opposed to a usage error (wrong Value.Kind accessed, etc).
var ErrMalformed = errors.New("bencode: malformed input")
