package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrIdentityExists = errors.New("an account with that email or username already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
)

// PolicyRule identifies the password rule a candidate password broke.
type PolicyRule string

const (
	RuleTooCommon        PolicyRule = "TOO_COMMON"
	RuleTooShort         PolicyRule = "TOO_SHORT"
	RuleMissingUppercase PolicyRule = "MISSING_UPPERCASE"
	RuleMissingLowercase PolicyRule = "MISSING_LOWERCASE"
	RuleMissingDigit     PolicyRule = "MISSING_DIGIT"
	RuleMissingSpecial   PolicyRule = "MISSING_SPECIAL"
)

// PolicyViolation reports the first rule a candidate password failed, in the
// fixed evaluation order of the password policy.
type PolicyViolation struct {
	Rule PolicyRule
}

func (e *PolicyViolation) Error() string {
	switch e.Rule {
	case RuleTooCommon:
		return "password is too common"
	case RuleTooShort:
		return "password must be at least 12 characters"
	case RuleMissingUppercase:
		return "password must contain an uppercase letter"
	case RuleMissingLowercase:
		return "password must contain a lowercase letter"
	case RuleMissingDigit:
		return "password must contain a digit"
	case RuleMissingSpecial:
		return "password must contain a special character"
	default:
		return fmt.Sprintf("password violates policy rule %s", e.Rule)
	}
}

// InvalidCredentialsError is the unified failure for unknown email and wrong
// password. The message is identical on both paths.
type InvalidCredentialsError struct {
	RemainingAttempts int
}

func (e *InvalidCredentialsError) Error() string {
	return "invalid email or password"
}

// AccountLockedError rejects a login while the account's lockout is active.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d seconds", e.RetryAfterSeconds())
}

// RetryAfterSeconds returns the remaining lock time rounded up to whole
// seconds, suitable for a Retry-After header.
func (e *AccountLockedError) RetryAfterSeconds() int64 {
	secs := int64((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}
