// Package alertparse turns raw LLM text into candidate alerts: a strict
// whole-document parse first, and a recovery strategy only when that fails.
package alertparse

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"safewatch/internal/types"
	"safewatch/internal/util/jsonutil"
)

// ErrUnparseable means neither the strict parse nor recovery produced an alert.
var ErrUnparseable = errors.New("alertparse: no alerts could be parsed from the response")

// ResponseParser extracts candidate alerts from a raw completion.
type ResponseParser interface {
	Parse(raw string) ([]types.Alert, error)
}

// Recovery extracts whatever complete alerts it can from text that failed the
// strict parse. now is the timestamp assigned to every recovered alert.
type Recovery interface {
	Name() string
	Recover(raw string, now time.Time) []types.Alert
}

type Mode string

const (
	ModeStrict    Mode = "strict"
	ModeRecovered Mode = "recovered"
)

type Result struct {
	Alerts []types.Alert
	Mode   Mode
	// StrictErr is the strict-parse failure when Mode is ModeRecovered.
	StrictErr error
}

// Parser runs StrictParse and falls back to its Recovery on failure.
type Parser struct {
	recovery Recovery
	now      func() time.Time
}

// New returns a Parser using recovery; nil selects RegexRecovery.
func New(recovery Recovery) *Parser {
	if recovery == nil {
		recovery = RegexRecovery{}
	}
	return &Parser{recovery: recovery, now: time.Now}
}

// RecoveryByName maps a configuration value to a strategy. Empty means regex.
func RecoveryByName(name string) (Recovery, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "regex":
		return RegexRecovery{}, nil
	case "stream":
		return StreamRecovery{}, nil
	default:
		return nil, fmt.Errorf("alertparse: unknown recovery strategy %q", name)
	}
}

func (p *Parser) Parse(raw string) ([]types.Alert, error) {
	res, err := p.ParseWithMode(raw)
	if err != nil {
		return nil, err
	}
	return res.Alerts, nil
}

// ParseWithMode is Parse that also reports which branch produced the alerts.
func (p *Parser) ParseWithMode(raw string) (Result, error) {
	alerts, err := StrictParse(raw)
	if err == nil {
		return Result{Alerts: alerts, Mode: ModeStrict}, nil
	}
	recovered := p.recovery.Recover(raw, p.now())
	if len(recovered) == 0 {
		return Result{}, fmt.Errorf("%w (strict: %v, %s recovery found none)", ErrUnparseable, err, p.recovery.Name())
	}
	return Result{Alerts: recovered, Mode: ModeRecovered, StrictErr: err}, nil
}

type envelope struct {
	Alerts []candidate `json:"alerts"`
}

// StrictParse decodes the whole document as {"alerts": [...]}, tolerating a
// Markdown code fence around it. A missing or null alerts array is a failure;
// an empty one is not.
func StrictParse(raw string) ([]types.Alert, error) {
	body := jsonutil.StripCodeFence(raw)
	if body == "" {
		return nil, errors.New("empty response")
	}
	var env envelope
	if err := jsonutil.UnmarshalFlex([]byte(body), &env); err != nil {
		return nil, err
	}
	if env.Alerts == nil {
		return nil, errors.New(`response has no "alerts" array`)
	}
	out := make([]types.Alert, 0, len(env.Alerts))
	for _, c := range env.Alerts {
		out = append(out, c.alert())
	}
	return out, nil
}
