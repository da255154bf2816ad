package alertparse

import (
	"encoding/json"
	"strings"
	"time"

	"safewatch/internal/types"
	"safewatch/internal/util/jsonutil"
)

// StreamRecovery walks the token stream to the top-level "alerts" array and
// keeps every element decoded before the first error. Field order does not matter.
type StreamRecovery struct{}

func (StreamRecovery) Name() string { return "stream" }

func (StreamRecovery) Recover(raw string, now time.Time) []types.Alert {
	dec := json.NewDecoder(strings.NewReader(jsonutil.StripCodeFence(raw)))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, _ := tok.(string)
		if key != "alerts" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil
			}
			continue
		}
		if tok, err := dec.Token(); err != nil || tok != json.Delim('[') {
			return nil
		}
		return decodePrefix(dec, now)
	}
	return nil
}

func decodePrefix(dec *json.Decoder, now time.Time) []types.Alert {
	ts := now.UTC().Format(time.RFC3339)
	var out []types.Alert
	for dec.More() {
		var c candidate
		if err := dec.Decode(&c); err != nil {
			break
		}
		a := c.alert()
		a.Timestamp = ts
		out = append(out, a)
	}
	return out
}
