package qte

import "atb_battle/internal/config"

// TimingJudge scores a single press against a success window. Presses up to
// Grace seconds past SuccessEnd still count.
type TimingJudge struct {
	Duration     float64
	SuccessStart float64
	SuccessEnd   float64
	Grace        float64
}

func NewTimingJudge(def config.TimingDef) TimingJudge {
	return TimingJudge{
		Duration:     def.Duration,
		SuccessStart: def.SuccessStart,
		SuccessEnd:   def.SuccessEnd,
		Grace:        def.Grace,
	}
}

func (j TimingJudge) Judge(elapsed float64) bool {
	if elapsed < 0 || j.TimedOut(elapsed) {
		return false
	}
	return elapsed >= j.SuccessStart && elapsed <= j.SuccessEnd+j.Grace
}

// TimedOut reports whether the prompt has expired without a press.
func (j TimingJudge) TimedOut(elapsed float64) bool {
	return elapsed > j.Duration+j.Grace
}

// RapidJudge needs Required taps before Duration runs out.
type RapidJudge struct {
	Duration float64
	Required int
}

func NewRapidJudge(def config.RapidDef) RapidJudge {
	return RapidJudge{Duration: def.Duration, Required: def.Required}
}

func (j RapidJudge) Judge(taps int, elapsed float64) bool {
	if elapsed > j.Duration {
		return false
	}
	return taps >= j.Required
}

// Progress is the completed fraction in [0,1].
func (j RapidJudge) Progress(taps int) float64 {
	if j.Required <= 0 {
		return 1
	}
	p := float64(taps) / float64(j.Required)
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	return p
}
