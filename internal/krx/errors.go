package krx

import "fmt"

// MissingFieldError reports a remote field key that was absent from a
// response row. Treated as schema drift and fatal for the whole run;
// substituting a default could silently corrupt the snapshot.
type MissingFieldError struct {
	Key string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("krx: missing field %q in response row", e.Key)
}

// UnknownSignError reports an up/down code outside the documented "0"-"5"
// range. Never coerced: guessing a sign would corrupt change values.
type UnknownSignError struct {
	Code string
}

func (e *UnknownSignError) Error() string {
	return fmt.Sprintf("krx: unknown up/down code %q", e.Code)
}
