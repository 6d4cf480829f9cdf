package game

import (
	"regexp"
	"strings"
)

const (
	minUserNameLen = 3
	minPasswordLen = 6
)

var (
	// Usernames are case-folded and reduced to letters before any other
	// rule applies.
	disallowedUserNameRE = regexp.MustCompile(`[^a-z]+`)

	// The classic keyboard-walk passwords. Everything else weak is caught
	// by the length and username rules.
	weakPasswords = map[string]bool{
		"123456": true,
		"654321": true,
	}
)

// normalizeUserName case-folds the input and strips every disallowed
// character. An empty result means "no input", not an error.
func normalizeUserName(input string) string {
	return disallowedUserNameRE.ReplaceAllString(strings.ToLower(input), "")
}

// PasswordTooShortError is returned for signup passwords under the
// minimum length.
type PasswordTooShortError struct{}

func (e PasswordTooShortError) Error() string {
	return "Please choose a password of at least 6 characters."
}

// PasswordEqualsUserNameError is returned when the password matches the
// chosen username, case-insensitively.
type PasswordEqualsUserNameError struct{}

func (e PasswordEqualsUserNameError) Error() string {
	return "Your password and your username may not be the same."
}

// PasswordTooSimpleError is returned for blocklisted trivial passwords.
type PasswordTooSimpleError struct{}

func (e PasswordTooSimpleError) Error() string {
	return "Sorry, that password is too simple."
}

// checkSignUpPassword validates a new password against the signup rules.
// The returned error's text is the message shown to the player.
func checkSignUpPassword(userName, password string) error {
	if len(password) < minPasswordLen {
		return PasswordTooShortError{}
	}
	if strings.EqualFold(password, userName) {
		return PasswordEqualsUserNameError{}
	}
	if weakPasswords[password] {
		return PasswordTooSimpleError{}
	}
	return nil
}

func answersYes(answer string) bool {
	return answer == "yes" || answer == "y"
}

func answersNo(answer string) bool {
	return answer == "no" || answer == "n"
}

func answersBack(answer string) bool {
	return answer == "back" || answer == "b"
}
