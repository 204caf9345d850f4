// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'. urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if s, ok := value.(string); ok && strings.HasPrefix(s, "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

var validOutputFlagValues = []string{"text", "json", "raw", "yaml"}

func OutputValidator(value any) error {
	s, _ := value.(string)
	if !slices.Contains(validOutputFlagValues, s) {
		return fmt.Errorf("must be one of %v", validOutputFlagValues)
	}
	return nil
}

var validPeriods = []string{"day", "week", "month", "year"}

func PeriodValidator(value any) error {
	s, _ := value.(string)
	if !slices.Contains(validPeriods, s) {
		return fmt.Errorf("must be one of %v", validPeriods)
	}
	return nil
}

func NonNegativeValidator(value any) error {
	if n, ok := value.(int); !ok || n < 0 {
		return errors.New("must be zero or more")
	}
	return nil
}

func PositiveValidator(value any) error {
	if n, ok := value.(int); !ok || n < 1 {
		return errors.New("must be greater than zero")
	}
	return nil
}

// RequiredArgValidator checks that the positional argument named name is
// present.
func RequiredArgValidator(name string) FlagValidatorType {
	return func(value any) error {
		if s, _ := value.(string); strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
