package quiz

import (
	"fmt"
	"strings"
)

type Trait string

const (
	Openness          Trait = "openness"
	Conscientiousness Trait = "conscientiousness"
	Extraversion      Trait = "extraversion"
	Agreeableness     Trait = "agreeableness"
	Neuroticism       Trait = "neuroticism"
)

// Traits is the fixed order used when composing a code.
var Traits = [5]Trait{Openness, Conscientiousness, Extraversion, Agreeableness, Neuroticism}

// Letter returns the single-letter abbreviation used by the subtype form.
func (t Trait) Letter() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1]))
}

func (t Trait) Valid() bool {
	for _, x := range Traits {
		if x == t {
			return true
		}
	}
	return false
}

type Level string

const (
	Low    Level = "Low"
	Medium Level = "Medium"
	High   Level = "High"
)

var Levels = [3]Level{Low, Medium, High}

const (
	lowCeiling  = 2.6 // score <= lowCeiling is Low
	highFloor   = 3.6 // score >= highFloor is High
	codeSep     = "-"
	minResponse = 1
	maxResponse = 5
)

// Bucket maps a trait average onto Low/Medium/High. Both boundaries are
// inclusive on the outer side: 2.6 is Low and 3.6 is High.
func Bucket(score float64) Level {
	if score <= lowCeiling {
		return Low
	}
	if score < highFloor {
		return Medium
	}
	return High
}

// ParseLevel accepts a level name in any letter case.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, true
	case "medium":
		return Medium, true
	case "high":
		return High, true
	}
	return "", false
}

// Code is the hyphen-joined five-level personality code, e.g.
// "Medium-High-Low-Medium-High".
type Code string

const NeutralCode Code = "Medium-Medium-Medium-Medium-Medium"

func (c Code) String() string { return string(c) }

// Levels splits a well-formed code back into its per-trait levels.
func (c Code) Levels() (map[Trait]Level, error) {
	parts := strings.Split(string(c), codeSep)
	if len(parts) != len(Traits) {
		return nil, fmt.Errorf("code %q: want %d levels, got %d", c, len(Traits), len(parts))
	}
	out := make(map[Trait]Level, len(Traits))
	for i, p := range parts {
		lv, ok := ParseLevel(p)
		if !ok {
			return nil, fmt.Errorf("code %q: bad level %q", c, p)
		}
		out[Traits[i]] = lv
	}
	return out, nil
}

// ParseCode validates s and canonicalises its level casing.
func ParseCode(s string) (Code, error) {
	lv, err := Code(strings.TrimSpace(s)).Levels()
	if err != nil {
		return "", err
	}
	return ComposeCode(lv), nil
}

// ComposeCode joins levels in fixed trait order.
func ComposeCode(levels map[Trait]Level) Code {
	parts := make([]string, 0, len(Traits))
	for _, t := range Traits {
		parts = append(parts, string(levels[t]))
	}
	return Code(strings.Join(parts, codeSep))
}

// AllCodes enumerates the 243 possible codes in O,C,E,A,N order with
// Low < Medium < High.
func AllCodes() []Code {
	out := make([]Code, 0, 243)
	var walk func(i int, acc map[Trait]Level)
	walk = func(i int, acc map[Trait]Level) {
		if i == len(Traits) {
			out = append(out, ComposeCode(acc))
			return
		}
		for _, lv := range Levels {
			acc[Traits[i]] = lv
			walk(i+1, acc)
		}
	}
	walk(0, map[Trait]Level{})
	return out
}
