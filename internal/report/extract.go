package report

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/illegalcall/esgtracker/internal/models"
)

// ExtractJSONObject returns the text itself when it is a JSON object, or the
// first balanced top-level {...} embedded in it that parses as JSON.
func ExtractJSONObject(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && gjson.Valid(trimmed) {
		return trimmed, true
	}

	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchBrace(text, start); end > start {
			candidate := text[start : end+1]
			if gjson.Valid(candidate) {
				return candidate, true
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace returns the index of the brace closing the one at start, or -1.
// Braces inside JSON strings are skipped.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// decodeReport maps the backend object onto the report schema. Scores are
// rounded and clamped to [0,100]; numeric strings are accepted.
func decodeReport(obj string) (*models.ESGReport, bool) {
	parsed := gjson.Parse(obj)
	if !parsed.IsObject() || !parsed.Get("summary").Exists() {
		return nil, false
	}

	r := &models.ESGReport{
		Summary:              parsed.Get("summary").String(),
		EnvironmentalScore:   score(parsed.Get("environmentalScore")),
		SocialScore:          score(parsed.Get("socialScore")),
		GovernanceScore:      score(parsed.Get("governanceScore")),
		OverallScore:         score(parsed.Get("overallScore")),
		EnvironmentalDetails: parsed.Get("environmentalDetails").String(),
		SocialDetails:        parsed.Get("socialDetails").String(),
		GovernanceDetails:    parsed.Get("governanceDetails").String(),
		ComplianceStatus:     parsed.Get("complianceStatus").String(),
		Recommendations:      []string{},
	}

	recs := parsed.Get("recommendations")
	switch {
	case recs.IsArray():
		for _, item := range recs.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				r.Recommendations = append(r.Recommendations, s)
			}
		}
	case recs.Type == gjson.String && strings.TrimSpace(recs.String()) != "":
		r.Recommendations = append(r.Recommendations, strings.TrimSpace(recs.String()))
	}
	return r, true
}

func score(v gjson.Result) int {
	f := math.Round(v.Float())
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 100:
		return 100
	}
	return int(f)
}
