package source

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)

// ParseUsername accepts a profile URL (https://www.reddit.com/user/<name>),
// a /u/<name> or u/<name> path, or a bare name, and returns the username as
// written.
func ParseUsername(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", errors.Wrap(ErrInvalidUsername, "empty input")
	}

	if strings.Contains(s, "reddit.com") {
		if !strings.Contains(s, "://") {
			s = "https://" + s
		}
		parsed, err := url.Parse(s)
		if err != nil {
			return "", errors.Wrapf(ErrInvalidUsername, "parse %q", input)
		}
		s = parsed.Path
	}

	segments := strings.FieldsFunc(s, func(r rune) bool { return r == '/' })
	name := ""
	switch {
	case len(segments) >= 2 && (segments[0] == "u" || segments[0] == "user"):
		name = segments[1]
	case len(segments) == 1:
		name = segments[0]
	}

	if !usernamePattern.MatchString(name) {
		return "", errors.Wrapf(ErrInvalidUsername, "%q", input)
	}
	return name, nil
}
