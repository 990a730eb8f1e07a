package session

import (
	"fmt"
	"time"
)

// NewPhaseRecord begins tracking a phase. No segment is open until Resume.
func NewPhaseRecord(mode Mode, phase int, start time.Time) *PhaseRecord {
	if start.IsZero() {
		start = time.Now()
	}
	return &PhaseRecord{
		Mode:      mode,
		Phase:     phase,
		StartTime: start,
	}
}

// End closes the record and its last segment, if still open.
func (p *PhaseRecord) End(end time.Time) {
	if end.IsZero() {
		end = time.Now()
	}
	p.EndTime = end
	if len(p.Segments) > 0 {
		lastIndex := len(p.Segments) - 1
		if p.Segments[lastIndex].EndTime.IsZero() {
			p.Segments[lastIndex].EndTime = end
		}
	}
}

func (p *PhaseRecord) IsActive() bool {
	return p.EndTime.IsZero()
}

// IsIdle reports whether the record has no open segment.
func (p *PhaseRecord) IsIdle() bool {
	if len(p.Segments) == 0 {
		return true
	}
	return !p.Segments[len(p.Segments)-1].IsActive()
}

// Resume opens a new running segment.
func (p *PhaseRecord) Resume(start time.Time) error {
	if !p.IsIdle() {
		return fmt.Errorf("cannot open a segment while another is running")
	}
	if start.IsZero() {
		start = time.Now()
	}
	p.Segments = append(p.Segments, SegmentRecord{StartTime: start})
	return nil
}

// Suspend closes the open segment with reason. It is a no-op when idle.
func (p *PhaseRecord) Suspend(end time.Time, reason string) {
	if p.IsIdle() {
		return
	}
	if end.IsZero() {
		end = time.Now()
	}
	lastIndex := len(p.Segments) - 1
	p.Segments[lastIndex].EndTime = end
	p.Segments[lastIndex].Reason = reason
}

// Duration is the total running time across all segments, in seconds.
func (p *PhaseRecord) Duration() int64 {
	var total int64
	for _, segment := range p.Segments {
		total += segment.Duration()
	}
	return total
}

// Duration of the segment in seconds. Open segments are measured up to now.
func (s SegmentRecord) Duration() int64 {
	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Unix() - s.StartTime.Unix()
}

func (s SegmentRecord) IsActive() bool {
	return s.EndTime.IsZero()
}
