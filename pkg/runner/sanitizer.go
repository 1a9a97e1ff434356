package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxPhraseSize is 1KB, far above any spoken command.
	DefaultMaxPhraseSize = 1024
	// EnvMaxPhraseSize is the environment variable to override the default.
	EnvMaxPhraseSize = "BLADE_MAX_PHRASE_SIZE"
)

var (
	ErrPhraseTooLarge = errors.New("phrase exceeds maximum allowed size")
	ErrInvalidUTF8    = errors.New("phrase contains invalid UTF-8 sequences")
)

// SanitizePhrase enforces the size limit, validates UTF-8 and drops control
// characters, so that transcripts cannot poison logs or the terminal.
// Tabs and line breaks become spaces.
func SanitizePhrase(phrase string) (string, error) {
	limit := maxPhraseSize()
	if len(phrase) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrPhraseTooLarge, len(phrase), limit)
	}
	if !utf8.ValidString(phrase) {
		return "", ErrInvalidUTF8
	}

	var b strings.Builder
	b.Grow(len(phrase))
	for _, r := range phrase {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func maxPhraseSize() int {
	if val := os.Getenv(EnvMaxPhraseSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxPhraseSize
}
