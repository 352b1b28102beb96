package flow

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	nameMinLen = 2
	nameMaxLen = 50
	textMinLen = 10

	// dateInputLayout is the user-facing date format.
	dateInputLayout = "02.01.2006"

	// maxPublishAhead caps how far in the future a greeting can be scheduled.
	maxPublishAhead = 365 * 24 * time.Hour
)

var (
	namePattern  = regexp.MustCompile(`^[\p{L}\s-]+$`)
	phoneStrip   = regexp.MustCompile(`[\s()+.-]`)
	phonePattern = regexp.MustCompile(`^(7|8)\d{10}$`)
)

// ValidateName checks a person's name: letters, spaces, and hyphens only,
// 2-50 characters. Returns the trimmed name.
func ValidateName(input string) (string, error) {
	name := strings.TrimSpace(input)
	n := utf8.RuneCountInString(name)
	if n < nameMinLen || n > nameMaxLen {
		return "", fmt.Errorf("flow: имя должно быть от %d до %d символов", nameMinLen, nameMaxLen)
	}
	if !namePattern.MatchString(name) {
		return "", errors.New("flow: имя может содержать только буквы, пробелы и дефисы")
	}
	return name, nil
}

// ValidatePhone checks a Russian phone number. Separators are stripped;
// the result must be +7 or 8 followed by 10 digits. Returns the number
// normalized to the +7XXXXXXXXXX form.
func ValidatePhone(input string) (string, error) {
	digits := phoneStrip.ReplaceAllString(strings.TrimSpace(input), "")
	if !phonePattern.MatchString(digits) {
		return "", errors.New("flow: номер должен быть в формате +7XXXXXXXXXX или 8XXXXXXXXXX")
	}
	return "+7" + digits[1:], nil
}

// ValidateText checks free-form text length in runes against the per-type
// maximum. Returns the trimmed text.
func ValidateText(input string, maxLen int) (string, error) {
	text := strings.TrimSpace(input)
	n := utf8.RuneCountInString(text)
	if n < textMinLen {
		return "", fmt.Errorf("flow: текст слишком короткий, минимум %d символов", textMinLen)
	}
	if n > maxLen {
		return "", fmt.Errorf("flow: текст слишком длинный, максимум %d символов", maxLen)
	}
	return text, nil
}

// ValidateDate parses a DD.MM.YYYY date that must be today or later, but no
// more than a year ahead. Returns the date normalized to YYYY-MM-DD.
func ValidateDate(input string, now time.Time) (string, error) {
	d, err := time.Parse(dateInputLayout, strings.TrimSpace(input))
	if err != nil {
		return "", errors.New("flow: дата должна быть в формате ДД.ММ.ГГГГ")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		return "", errors.New("flow: дата уже прошла, укажите сегодняшнюю или будущую")
	}
	if d.Sub(today) > maxPublishAhead {
		return "", errors.New("flow: дата слишком далеко, максимум год вперёд")
	}
	return d.Format("2006-01-02"), nil
}
