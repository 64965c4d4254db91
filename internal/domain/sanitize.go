package domain

import (
	"strings"
	"unicode/utf8"
)

// MaxFilenameLength bounds sanitized titles, counted in characters
const MaxFilenameLength = 100

// MaxFilenameBytes keeps multi-byte titles, extension and yt-dlp's
// temporary suffixes under the 255-byte filename limit
const MaxFilenameBytes = 200

var filenameReplacer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_",
	`\`, "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeFilename maps a title to a filesystem-safe filename prefix.
// The same function must be used when requesting and when discovering output.
func SanitizeFilename(title string) string {
	name := filenameReplacer.Replace(title)
	if runes := []rune(name); len(runes) > MaxFilenameLength {
		name = string(runes[:MaxFilenameLength])
	}
	for len(name) > MaxFilenameBytes {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return strings.TrimSpace(name)
}
