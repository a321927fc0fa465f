package normalize

import (
	"path/filepath"
	"regexp"
	"strings"
)

var deviceToken = regexp.MustCompile(`(aviario_\d+|galpao_\d+)`)

// Stem returns the file name without directory or extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DeviceID derives the aviary or shed identifier from a file name. The
// lowercased name is searched for an aviario_N or galpao_N token; when there
// is none the file stem is used as is.
func DeviceID(fileName string) string {
	stem := Stem(fileName)
	if m := deviceToken.FindString(strings.ToLower(stem)); m != "" {
		return m
	}
	return stem
}
