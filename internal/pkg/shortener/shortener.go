package shortener

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode"
)

// Alphabet for slug generation (62 characters: 0-9, a-z, A-Z)
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateSecureSlug creates a cryptographically secure random Base62 slug.
func GenerateSecureSlug(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid slug length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 248 is the largest multiple of 62 below 256.
	const maxRandomByte = 248

	slug := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			slug[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(slug), nil
}

// SiteSlug builds a URL slug for a published site from its title plus a
// random suffix to keep slugs unique without a retry loop on collisions.
func SiteSlug(title string) (string, error) {
	suffix, err := GenerateSecureSlug(6)
	if err != nil {
		return "", err
	}

	base := Slugify(title)
	if base == "" {
		return strings.ToLower(suffix), nil
	}
	return base + "-" + strings.ToLower(suffix), nil
}

// Slugify lowercases a title and collapses anything non-alphanumeric into
// single hyphens. Result is capped at 60 characters.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		if b.Len() >= 60 {
			break
		}
	}

	return strings.Trim(b.String(), "-")
}
