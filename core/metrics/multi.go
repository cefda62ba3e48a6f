package metrics

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTransition forwards the record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordTransition(rec TransitionRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordTransition(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordRejection forwards rejections to sinks that support them.
func (m *MultiSink) RecordRejection(rec RejectionRecord) error {
	for _, s := range m.Sinks {
		if rr, ok := s.(RejectionRecorder); ok {
			if err := rr.RecordRejection(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordConflict forwards conflicts to sinks that support them.
func (m *MultiSink) RecordConflict(rec ConflictRecord) error {
	for _, s := range m.Sinks {
		if cr, ok := s.(ConflictRecorder); ok {
			if err := cr.RecordConflict(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFleetCounts forwards fleet gauges to sinks that support them.
func (m *MultiSink) RecordFleetCounts(c FleetCounts) error {
	for _, s := range m.Sinks {
		if fr, ok := s.(FleetCountsRecorder); ok {
			if err := fr.RecordFleetCounts(c); err != nil {
				return err
			}
		}
	}
	return nil
}
