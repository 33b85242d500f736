package intent

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nameCues gates the (comparatively expensive) regex extraction. The cue set
// and pattern mirror each other: a cue hit with no pattern match is a silent
// no-op, not an error.
var nameCues = []string{"name", "i am", "my name"}

var namePattern = regexp.MustCompile(`(?i)(?:name[:\s]*|i am|my name is)\s*([a-zA-Z\s]+)`)

var titleCaser = cases.Title(language.English)

// InferName tries to pull a person's name out of a free-text message.
// It returns the title-cased name and true on success. Callers should only
// invoke it while the lead has no name; the extracted value is a best-effort
// heuristic, not a validated identity field.
func InferName(message string) (string, bool) {
	lower := strings.ToLower(message)

	cued := false
	for _, cue := range nameCues {
		if strings.Contains(lower, cue) {
			cued = true
			break
		}
	}
	if !cued {
		return "", false
	}

	match := namePattern.FindStringSubmatch(message)
	if match == nil {
		return "", false
	}

	name := strings.TrimSpace(match[1])
	if name == "" {
		return "", false
	}

	return titleCaser.String(name), true
}
