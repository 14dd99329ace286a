package secrets

import (
	"errors"
	"fmt"
)

var (
	ErrParameterNotFound     = errors.New("parameter not found")
	ErrParameterNotRetrieved = errors.New("parameter not retrieved")
)

func ErrorParameterNotFound(name string) error {
	return fmt.Errorf("%w: name=%s", ErrParameterNotFound, name)
}

func ErrorParameterNotRetrieved(name string, cause error) error {
	return fmt.Errorf("%w: name=%s cause=%v", ErrParameterNotRetrieved, name, cause)
}
