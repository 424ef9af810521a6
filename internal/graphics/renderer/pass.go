package renderer

import "fmt"

// Pass names one stage of a frame.
type Pass int

const (
	passNone Pass = iota
	PassShadow
	PassWaterReflection
	PassWaterRefraction
	PassScene
	PassResolve
	PassPostProcess
	PassPresent
)

var passNames = map[Pass]string{
	passNone:            "none",
	PassShadow:          "shadow",
	PassWaterReflection: "water-reflection",
	PassWaterRefraction: "water-refraction",
	PassScene:           "scene",
	PassResolve:         "resolve",
	PassPostProcess:     "post-process",
	PassPresent:         "present",
}

func (p Pass) String() string {
	if s, ok := passNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Pass(%d)", int(p))
}

// PassEvent is delivered to a PassObserver when a pass begins and ends.
type PassEvent struct {
	Pass  Pass
	Begin bool
}

func (e PassEvent) String() string {
	if e.Begin {
		return e.Pass.String() + ":begin"
	}
	return e.Pass.String() + ":end"
}

// PassObserver receives pass events in order.
type PassObserver func(PassEvent)
