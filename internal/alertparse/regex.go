package alertparse

import (
	"regexp"
	"time"

	"safewatch/internal/types"
	"safewatch/internal/util/jsonutil"
)

// RegexRecovery matches complete alert objects whose fields appear in the
// order the prompt asks for. The timestamp field is optional and not captured.
type RegexRecovery struct{}

func (RegexRecovery) Name() string { return "regex" }

const jsonStr = `"((?:[^"\\]|\\.)*)"`

func field(name string) string {
	return `\s*"` + name + `"\s*:\s*` + jsonStr + `\s*`
}

var (
	alertRecord = regexp.MustCompile(`\{` +
		field("id") + `,` +
		field("title") + `,` +
		field("shortDescription") + `,` +
		field("longDescription") + `,` +
		field("severity") + `,` +
		field("location") + `,` +
		field("area") + `,` +
		`(?:\s*"timestamp"\s*:\s*"(?:[^"\\]|\\.)*"\s*,)?` +
		field("source") + `,` +
		field("sourceUrl") + `,` +
		field("alertType") + `,` +
		`\s*"keywords"\s*:\s*\[((?:\s*"(?:[^"\\]|\\.)*"\s*,?)*)\]\s*,` +
		field("recommendations") +
		`\}`)
	keywordItem = regexp.MustCompile(jsonStr)
)

// keywordsGroup is the submatch holding the raw keyword array body.
const keywordsGroup = 11

func (RegexRecovery) Recover(raw string, now time.Time) []types.Alert {
	ts := now.UTC().Format(time.RFC3339)
	var out []types.Alert
	for _, m := range alertRecord.FindAllStringSubmatch(raw, -1) {
		s := make([]string, len(m))
		ok := true
		for i := 1; i < len(m); i++ {
			if i == keywordsGroup {
				s[i] = m[i]
				continue
			}
			v, err := jsonutil.DecodeString(m[i])
			if err != nil {
				ok = false
				break
			}
			s[i] = v
		}
		if !ok {
			continue
		}
		out = append(out, types.Alert{
			ID:               s[1],
			Title:            s[2],
			ShortDescription: s[3],
			LongDescription:  s[4],
			Severity:         types.Severity(s[5]),
			Location:         s[6],
			Area:             s[7],
			Timestamp:        ts,
			Source:           s[8],
			SourceURL:        s[9],
			AlertType:        types.AlertType(s[10]),
			Keywords:         keywords(s[keywordsGroup]),
			Recommendations:  s[12],
		})
	}
	return out
}

func keywords(list string) []string {
	out := []string{}
	for _, m := range keywordItem.FindAllStringSubmatch(list, -1) {
		if v, err := jsonutil.DecodeString(m[1]); err == nil {
			out = append(out, v)
		}
	}
	return out
}
