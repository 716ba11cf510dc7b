package errors

// Error is a constant string error so that error values can be
// declared as consts and compared with ==.
type Error string

func (e Error) Error() string { return string(e) }
