package service

import "github.com/google/uuid"

const (
	refCodePrefixLen = 3
	refCodeSuffixLen = 4
)

// generateRefCode derives a referral code from the first three
// characters of the user name plus four characters of a fresh UUID.
// The prefix counts runes, not bytes, so multi-byte names neither
// slip past validation nor get split mid-character. Uniqueness is
// enforced by the store constraint, not here; a collision surfaces
// as a conflict on insert.
func generateRefCode(userName string) (string, error) {
	runes := []rune(userName)
	if len(runes) < refCodePrefixLen {
		return "", ErrUserNameTooShort
	}

	refID := uuid.New().String()
	return string(runes[:refCodePrefixLen]) + refID[:refCodeSuffixLen], nil
}
