package crypto

import (
	"math"
	"strings"
	"unicode/utf16"
)

// Strength ratings
const (
	RatingVeryWeak   = "Very Weak"
	RatingWeak       = "Weak"
	RatingFair       = "Fair"
	RatingStrong     = "Strong"
	RatingVeryStrong = "Very Strong"
)

var commonPrefixes = []string{"password", "123456", "qwerty"}

// PasswordStrength is the result of CalculatePasswordStrength
type PasswordStrength struct {
	Score              int      `json:"score"`
	Rating             string   `json:"rating"`
	Feedback           []string `json:"feedback"`
	EstimatedCrackTime string   `json:"estimatedCrackTime"`
}

// CalculatePasswordStrength scores password on a 0-100 heuristic scale
func (e *Engine) CalculatePasswordStrength(password string) PasswordStrength {
	return CalculatePasswordStrength(password)
}

// CalculatePasswordStrength scores password on a 0-100 heuristic scale
func CalculatePasswordStrength(password string) PasswordStrength {
	score := 0
	var feedback []string
	length := utf16Len(password)

	switch {
	case length < 8:
		feedback = append(feedback, "Password is too short (minimum 8 characters)")
	default:
		score += 20
		if length >= 12 {
			score += 10
		}
		if length >= 16 {
			score += 10
		}
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := []struct {
		present bool
		hint    string
	}{
		{hasLower, "Add lowercase letters"},
		{hasUpper, "Add uppercase letters"},
		{hasDigit, "Add numbers"},
		{hasSymbol, "Add symbols"},
	}
	for _, c := range classes {
		if c.present {
			score += 15
		} else {
			feedback = append(feedback, c.hint)
		}
	}

	if length > 0 && hasDigit && !hasLower && !hasUpper && !hasSymbol {
		score -= 20
		feedback = append(feedback, "Avoid using only numbers")
	}
	if length > 0 && (hasLower || hasUpper) && !hasDigit && !hasSymbol {
		score -= 10
		feedback = append(feedback, "Add numbers or symbols")
	}
	if hasTripleRepeat(password) {
		score -= 15
		feedback = append(feedback, "Avoid repeated characters")
	}
	if hasCommonPrefix(password) {
		score -= 30
		feedback = append(feedback, "Avoid common passwords")
	}

	if entropyBits(password) > 60 {
		score += 10
	}

	score = max(0, min(100, score))

	var rating, crackTime string
	switch {
	case score < 20:
		rating, crackTime = RatingVeryWeak, "Less than 1 second"
	case score < 40:
		rating, crackTime = RatingWeak, "Minutes to hours"
	case score < 60:
		rating, crackTime = RatingFair, "Days to weeks"
	case score < 80:
		rating, crackTime = RatingStrong, "Months to years"
	default:
		rating, crackTime = RatingVeryStrong, "Centuries"
	}

	if len(feedback) == 0 {
		feedback = []string{"Password strength is good"}
	}

	return PasswordStrength{
		Score:              score,
		Rating:             rating,
		Feedback:           feedback,
		EstimatedCrackTime: crackTime,
	}
}

func hasTripleRepeat(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if run > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= 3 {
			return true
		}
		prev = r
	}
	return false
}

func hasCommonPrefix(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range commonPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// utf16Len counts UTF-16 code units, so a character outside the Basic
// Multilingual Plane counts twice
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// entropyBits returns the Shannon entropy per character times the length.
// Characters are counted per code point and the length in UTF-16 units.
func entropyBits(s string) float64 {
	n := utf16Len(s)
	if n == 0 {
		return 0
	}

	counts := make(map[rune]int)
	for _, r := range s {
		counts[r]++
	}

	var entropy float64
	for _, c := range counts {
		p := float64(c) / float64(n)
		entropy -= p * math.Log2(p)
	}
	return entropy * float64(n)
}
