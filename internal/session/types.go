package session

import "time"

// Mode is the interval type the clock is currently in.
type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short_break"
	ModeLongBreak  Mode = "long_break"
)

// WorkSession is the coarse work/break marker stored for restart recovery.
type WorkSession string

const (
	WorkSessionWork  WorkSession = "work"
	WorkSessionBreak WorkSession = "break"
)

// ClockState is the full state of the phase clock. It is owned by a single
// writer and handed out to everyone else by value.
type ClockState struct {
	Mode             Mode
	Phase            int
	RemainingSeconds int
	Running          bool
}

// Status is the public view of the clock carried by state updates.
type Status struct {
	Running          bool `json:"running" yaml:"running"`
	RemainingSeconds int  `json:"remaining_seconds" yaml:"remaining_seconds"`
	Mode             Mode `json:"mode" yaml:"mode"`
	Phase            int  `json:"phase" yaml:"phase"`
}

// CurrentSession is the small record persisted on every start and
// transition so a restarted daemon can resume in the right mode and phase.
type CurrentSession struct {
	Mode        Mode        `json:"mode"`
	Phase       int         `json:"phase"`
	WorkSession WorkSession `json:"work_session"`
}

// SegmentRecord is one uninterrupted stretch of running time.
type SegmentRecord struct {
	StartTime time.Time `json:"start"`
	EndTime   time.Time `json:"stop"`
	Reason    string    `json:"reason,omitempty"`
}

// PhaseRecord tracks a single focus or break phase from its first start
// until completion, including any pauses in between.
type PhaseRecord struct {
	Mode      Mode            `json:"mode"`
	Phase     int             `json:"phase"`
	StartTime time.Time       `json:"start"`
	EndTime   time.Time       `json:"end"`
	Segments  []SegmentRecord `json:"segments,omitempty"`
}
