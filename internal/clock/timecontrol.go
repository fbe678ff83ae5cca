package clock

import (
	"fmt"
	"strings"
)

type TimeControl string

const (
	Bullet1_0 TimeControl = "bullet_1_0"
	Bullet2_1 TimeControl = "bullet_2_1"
	Blitz3_0  TimeControl = "blitz_3_0"
	Blitz5_3  TimeControl = "blitz_5_3"
	Rapid10_0 TimeControl = "rapid_10_0"
)

// DefaultTimeControl is assumed for games whose clock matches no catalogue entry.
const DefaultTimeControl = Blitz5_3

type Category string

const (
	Bullet Category = "bullet"
	Blitz  Category = "blitz"
	Rapid  Category = "rapid"
)

type spec struct {
	initialMs   int64
	incrementMs int64
	category    Category
}

var catalogue = map[TimeControl]spec{
	Bullet1_0: {60_000, 0, Bullet},
	Bullet2_1: {120_000, 1_000, Bullet},
	Blitz3_0:  {180_000, 0, Blitz},
	Blitz5_3:  {300_000, 3_000, Blitz},
	Rapid10_0: {600_000, 0, Rapid},
}

func All() []TimeControl {
	return []TimeControl{Bullet1_0, Bullet2_1, Blitz3_0, Blitz5_3, Rapid10_0}
}

func ParseTimeControl(s string) (TimeControl, error) {
	tc := TimeControl(strings.ToLower(strings.TrimSpace(s)))
	if !tc.Valid() {
		return "", fmt.Errorf("unknown time control %q", s)
	}
	return tc, nil
}

func (tc TimeControl) Valid() bool {
	_, ok := catalogue[tc]
	return ok
}

func (tc TimeControl) InitialMs() int64 {
	return catalogue[tc].initialMs
}

func (tc TimeControl) IncrementMs() int64 {
	return catalogue[tc].incrementMs
}

func (tc TimeControl) Category() Category {
	if s, ok := catalogue[tc]; ok {
		return s.category
	}
	return catalogue[DefaultTimeControl].category
}

// FromDurations maps an (initial, increment) pair back onto the catalogue.
func FromDurations(initialMs, incrementMs int64) TimeControl {
	for _, tc := range All() {
		s := catalogue[tc]
		if s.initialMs == initialMs && s.incrementMs == incrementMs {
			return tc
		}
	}
	return DefaultTimeControl
}
