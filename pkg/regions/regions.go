// Package regions filters file names by the region tag used in
// No-Intro/Redump naming, e.g. "Some Game (Europe) (Rev 1).zip".
package regions

import (
	"path"
	"regexp"
	"strings"

	"github.com/WaffleThief123/myrient-downloader/pkg/models"
)

// aliases maps common shorthand to the full region name used in file names.
var aliases = map[string]string{
	"EU":  "Europe",
	"JP":  "Japan",
	"JPN": "Japan",
	"AUS": "Australia",
	"KR":  "Korea",
	"BR":  "Brazil",
	"CN":  "China",
	"FR":  "France",
	"DE":  "Germany",
	"HK":  "Hong Kong",
	"IT":  "Italy",
	"NL":  "Netherlands",
	"ES":  "Spain",
	"SE":  "Sweden",
	"CA":  "Canada",
}

// tagPattern captures the first parenthesized group in a file name.
var tagPattern = regexp.MustCompile(`\(([^)]+)\)`)

// Normalize expands aliases and drops empty elements.
func Normalize(raw []string) []string {
	var out []string
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if full, ok := aliases[strings.ToUpper(r)]; ok {
			r = full
		}
		out = append(out, r)
	}
	return out
}

// Matches reports whether the file name carries a region tag containing any
// of the given regions. A name with no tag never matches.
func Matches(filename string, regions []string) bool {
	m := tagPattern.FindStringSubmatch(filename)
	if m == nil {
		return false
	}
	tag := strings.ToLower(m[1])
	for _, r := range regions {
		if strings.Contains(tag, strings.ToLower(r)) {
			return true
		}
	}
	return false
}

// Filter keeps the entries whose base file name matches one of the regions.
// A nil or empty region list keeps everything.
func Filter(entries []models.FileEntry, regions []string) []models.FileEntry {
	if len(regions) == 0 {
		return entries
	}
	var out []models.FileEntry
	for _, e := range entries {
		if Matches(path.Base(e.RelativePath), regions) {
			out = append(out, e)
		}
	}
	return out
}
