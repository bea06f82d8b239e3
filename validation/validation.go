package validation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"vidqa/config"
	"vidqa/errors"
)

// youtubeIDPattern matches the 11-character video id in watch, embed,
// shortened and bare-parameter URL forms.
var youtubeIDPattern = regexp.MustCompile(
	`(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`,
)

const maxQuestionLength = 2000

type Validator struct {
	config *config.Config
}

func NewValidator(cfg *config.Config) *Validator {
	return &Validator{config: cfg}
}

// ValidateURL performs URL validation.
func (v *Validator) ValidateURL(urlStr string) error {
	const op = "Validator.ValidateURL"

	if urlStr == "" {
		return errors.InvalidInput(op, nil, "URL is required")
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return errors.InvalidInput(op, err, "Invalid URL format")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.InvalidInput(op, nil, "URL must use HTTP or HTTPS")
	}

	host := parsedURL.Hostname()
	if !strings.Contains(host, "youtube.com") && !strings.Contains(host, "youtu.be") {
		return errors.InvalidInput(op, nil, "Only YouTube URLs are supported")
	}

	return nil
}

// ExtractVideoID returns the platform video id embedded in a YouTube URL.
func (v *Validator) ExtractVideoID(urlStr string) (string, error) {
	const op = "Validator.ExtractVideoID"

	if err := v.ValidateURL(urlStr); err != nil {
		return "", err
	}

	match := youtubeIDPattern.FindStringSubmatch(urlStr)
	if match == nil {
		return "", errors.InvalidInput(op, nil, "Could not extract a video ID from the URL")
	}

	return match[1], nil
}

// ValidateQuestion checks question text before any external call is made.
func (v *Validator) ValidateQuestion(question string) error {
	const op = "Validator.ValidateQuestion"

	if strings.TrimSpace(question) == "" {
		return errors.InvalidInput(op, nil, "Question is required")
	}
	if utf8.RuneCountInString(question) > maxQuestionLength {
		return errors.InvalidInput(op, nil, "Question is too long")
	}

	return nil
}

// ValidateUserID rejects requests without an owner.
func (v *Validator) ValidateUserID(userID string) error {
	const op = "Validator.ValidateUserID"

	if strings.TrimSpace(userID) == "" {
		return errors.InvalidInput(op, nil, "User ID is required")
	}

	return nil
}
