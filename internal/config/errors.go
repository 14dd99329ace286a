package config

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSetting  = errors.New("invalid setting")
	ErrMissingSetting  = errors.New("required setting is missing")
	ErrSecretNotLoaded = errors.New("secret could not be loaded")
)

func ErrorInvalidSetting(name, value string, cause error) error {
	return fmt.Errorf("%w: %s=%q cause=%v", ErrInvalidSetting, name, value, cause)
}

func ErrorMissingSetting(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingSetting, name)
}

func ErrorSecretNotLoaded(name, param string, cause error) error {
	return fmt.Errorf("%w: %s param=%s cause=%w", ErrSecretNotLoaded, name, param, cause)
}
