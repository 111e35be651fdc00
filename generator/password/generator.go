package password

import (
	"errors"
	"fmt"

	"github.com/sethvargo/go-password/password"
)

// Generate returns a random password string respecting the given constraints.
//
// The returned password contains at least numDigits digits and numSymbol
// symbols, its total length is `length`. Set noUpper to exclude uppercase
// letters, and allowRepeat to permit repeating characters.
func Generate(length, numDigits, numSymbol int, noUpper, allowRepeat bool) (string, error) {
	res, err := password.Generate(length, numDigits, numSymbol, noUpper, allowRepeat)
	if err != nil {
		return "", fmt.Errorf("unable to generate password: %w", err)
	}
	return res, nil
}

// FromProfile generates a password matching the given profile settings.
func FromProfile(p *Profile) (string, error) {
	if p == nil {
		return "", errors.New("profile must not be nil")
	}
	return Generate(p.Length, p.NumDigits, p.NumSymbol, p.NoUpper, p.AllowRepeat)
}

// Paranoid generates a password using the ProfileParanoid settings.
func Paranoid() (string, error) {
	return FromProfile(ProfileParanoid)
}

// NoSymbol generates a password using the ProfileNoSymbol settings.
func NoSymbol() (string, error) {
	return FromProfile(ProfileNoSymbol)
}

// Strong generates a password using the ProfileStrong settings.
func Strong() (string, error) {
	return FromProfile(ProfileStrong)
}
