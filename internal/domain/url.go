package domain

import "regexp"

// supportedURLPatterns are anchored at the start only; trailing parameters are legal.
var supportedURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:https?://)?(?:www\.)?youtube\.com/watch\?v=([\w-]+)`),
	regexp.MustCompile(`^(?:https?://)?(?:www\.)?youtu\.be/([\w-]+)`),
	regexp.MustCompile(`^(?:https?://)?(?:m\.)?youtube\.com/watch\?v=([\w-]+)`),
	regexp.MustCompile(`^(?:https?://)?(?:www\.)?youtube\.com/shorts/([\w-]+)`),
	regexp.MustCompile(`^(?:https?://)?(?:m\.)?youtube\.com/shorts/([\w-]+)`),
}

// IsSupportedURL reports whether text starts with a known video URL shape
func IsSupportedURL(text string) bool {
	_, ok := ExtractVideoID(text)
	return ok
}

// ExtractVideoID returns the id captured by the first matching URL shape
func ExtractVideoID(text string) (string, bool) {
	for _, re := range supportedURLPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}
