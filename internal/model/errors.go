package model

import "fmt"

var _ error = UnknownTokenError{}

type UnknownTokenError struct {
	Token string
}

func (err UnknownTokenError) Error() string {
	return fmt.Sprintf("unknown action token: %q", err.Token)
}
