package types

import "github.com/pkg/errors"

// ErrZeroBalance is returned when a voter attempts to cast with no live
// decaying lock: either no deposit exists or the unlock time has passed.
var ErrZeroBalance = errors.New("voter has no locked balance")
