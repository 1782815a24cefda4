package service

import (
	"strings"

	"github.com/avensio/avensio-web/internal/domain"
)

// specialChars is the set of characters accepted as "special" by the policy.
const specialChars = "!@#$%^&*()-_=+[]{}|;:'\",.<>/?`~\\"

// commonPasswords is an exact-match denylist drawn from the top of public
// breach corpora, including variants that would otherwise satisfy every
// composition rule.
var commonPasswords = map[string]struct{}{
	"password":        {},
	"Password":        {},
	"password1":       {},
	"password123":     {},
	"Password123":     {},
	"Password123!":    {},
	"P@ssw0rd":        {},
	"P@ssword1":       {},
	"Passw0rd!":       {},
	"123456":          {},
	"12345678":        {},
	"123456789":       {},
	"1234567890":      {},
	"qwerty":          {},
	"qwerty123":       {},
	"Qwerty123!":      {},
	"abc123":          {},
	"letmein":         {},
	"letmein123":      {},
	"welcome":         {},
	"Welcome1":        {},
	"Welcome123!":     {},
	"admin":           {},
	"admin123":        {},
	"Admin123!":       {},
	"iloveyou":        {},
	"monkey":          {},
	"dragon":          {},
	"sunshine":        {},
	"princess":        {},
	"football":        {},
	"baseball":        {},
	"superman":        {},
	"trustno1":        {},
	"master":          {},
	"shadow":          {},
	"111111":          {},
	"000000":          {},
	"654321":          {},
	"qwertyuiop":      {},
	"1q2w3e4r":        {},
	"zaq1zaq1":        {},
	"Changeme123!":    {},
	"Summer2024!":     {},
	"Spring2024!":     {},
	"Autumn2024!":     {},
	"Winter2024!":     {},
	"CorrectHorse1!":  {},
	"Secret123!":      {},
	"Secure123!":      {},
}

// PasswordPolicy validates candidate passwords against a fixed rule set.
// Rules are checked in a fixed order and the first failure wins, so the
// reported violation is deterministic for any given password.
type PasswordPolicy struct {
	minLength int
}

// NewPasswordPolicy creates the policy with the standard 12-character minimum.
func NewPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{minLength: 12}
}

// Validate checks the password and returns nil or a *domain.PolicyViolation
// naming the first broken rule. It has no side effects.
func (p *PasswordPolicy) Validate(password string) error {
	if _, ok := commonPasswords[password]; ok {
		return &domain.PolicyViolation{Rule: domain.RuleTooCommon}
	}
	if len(password) < p.minLength {
		return &domain.PolicyViolation{Rule: domain.RuleTooShort}
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case strings.ContainsRune(specialChars, c):
			hasSpecial = true
		}
	}

	if !hasUpper {
		return &domain.PolicyViolation{Rule: domain.RuleMissingUppercase}
	}
	if !hasLower {
		return &domain.PolicyViolation{Rule: domain.RuleMissingLowercase}
	}
	if !hasDigit {
		return &domain.PolicyViolation{Rule: domain.RuleMissingDigit}
	}
	if !hasSpecial {
		return &domain.PolicyViolation{Rule: domain.RuleMissingSpecial}
	}
	return nil
}
