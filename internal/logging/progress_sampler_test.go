package logging

import "testing"

func TestProgressSamplerStepDefaults(t *testing.T) {
	for _, step := range []int{0, -5} {
		if s := NewProgressSampler(step); s.step != 10 {
			t.Fatalf("step %d: got %d want 10", step, s.step)
		}
	}
	if s := NewProgressSampler(25); s.step != 25 {
		t.Fatalf("got %d want 25", s.step)
	}
}

func TestProgressSamplerNilLogsEverything(t *testing.T) {
	var s *ProgressSampler
	if !s.Sample("parse", 50) || !s.Chunks("send", 1, 3) {
		t.Fatal("nil sampler should let every report through")
	}
	s.Reset()
}

func TestProgressSamplerParse(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		percent int
		want    bool
	}{
		{0, true},
		{10, false},
		{24, false},
		{25, true},
		{30, false},
		{80, true},
		{99, false},
		{100, true},
		{100, false},
		{150, false},
	}
	for _, step := range steps {
		if got := s.Sample("parse", step.percent); got != step.want {
			t.Fatalf("%d%%: got %v want %v", step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerPhaseChange(t *testing.T) {
	s := NewProgressSampler(10)
	s.Sample("parse", 90)
	if !s.Chunks("receive", 0, 4) {
		t.Fatal("a new phase should log")
	}
	if s.Chunks("receive", 0, 4) {
		t.Fatal("repeated progress should be dropped")
	}
	if !s.Chunks("receive", 2, 4) {
		t.Fatal("half way should log")
	}
	if !s.Chunks("receive", 4, 4) {
		t.Fatal("completion should log")
	}
	if !s.Chunks("send", 0, 0) {
		t.Fatal("an empty transfer counts as complete")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(10)
	s.Sample("parse", 100)
	if s.Sample("parse", 100) {
		t.Fatal("finished phase should stay quiet")
	}
	s.Reset()
	if !s.Sample("parse", 100) {
		t.Fatal("expected a report after reset")
	}
}
