package logging

// ProgressSampler thins out progress that is reported every frame. A report
// passes when the phase changes, when it crosses the next step boundary, and
// once when it reaches 100.
type ProgressSampler struct {
	step     int
	phase    string
	next     int
	finished bool
}

// NewProgressSampler returns a sampler that lets one report through per step
// percent. A step of zero or less means 10.
func NewProgressSampler(step int) *ProgressSampler {
	if step <= 0 {
		step = 10
	}
	return &ProgressSampler{step: step}
}

// Sample reports whether percent progress in phase should be logged. Percent
// is clamped to [0, 100]. A nil sampler logs everything.
func (s *ProgressSampler) Sample(phase string, percent int) bool {
	if s == nil {
		return true
	}
	percent = min(max(percent, 0), 100)
	if phase != s.phase {
		s.phase = phase
		s.finished = percent == 100
		s.advance(percent)
		return true
	}
	switch {
	case s.finished:
		return false
	case percent == 100:
		s.finished = true
		return true
	case percent < s.next:
		return false
	}
	s.advance(percent)
	return true
}

// Chunks samples a transfer measured in chunks.
func (s *ProgressSampler) Chunks(phase string, done, total int) bool {
	if total <= 0 {
		return s.Sample(phase, 100)
	}
	return s.Sample(phase, done*100/total)
}

// Reset forgets the current phase so the next report always passes.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	*s = ProgressSampler{step: s.step}
}

func (s *ProgressSampler) advance(percent int) {
	s.next = (percent/s.step + 1) * s.step
}
