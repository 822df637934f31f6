package cues_test

import (
	"errors"
	"testing"

	"subsync/internal/cues"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"00:00:01,000", 1},
		{"01:02:03,456", 3723.456},
		{"00:00:02.500", 2.5},
		{" 00:10:00,000 ", 600},
		{"02:03.250", 123.25},
		{"00:00:07", 7},
		{"aa:00:05,100", 5.1},
		{"garbage", 0},
		{"", 0},
	}
	for _, tc := range tests {
		got := cues.ParseTimestamp(tc.in)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestEstimateCapacity(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  int
		err   error
	}{
		{"index hint", []string{"1", "00:00:01,000 --> 00:00:02,000", "a", "", "41", "00:00:03,000 --> 00:00:04,000", "b", ""}, 42, nil},
		{"zero based index", []string{"0", "00:00:01,000 --> 00:00:02,000", "a", ""}, 1, nil},
		{"no index falls back", []string{"WEBVTT", "", "00:01.000 --> 00:02.000", "a", "", "00:03.000 --> 00:04.000", "b", "", ""}, 3, nil},
		{"negative index falls back", []string{"-4", "00:00:01,000 --> 00:00:02,000", "a"}, 1, nil},
		{"too short", []string{"a", ""}, 0, cues.ErrCapacityEstimation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cues.EstimateCapacity(tc.lines)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected error %v, got %v", tc.err, err)
			}
			if got != tc.want {
				t.Fatalf("EstimateCapacity = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFilterText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"keeps whitelist", "<b>bold</b> <i>it</i> <u>u</u>", "<b>bold</b> <i>it</i> <u>u</u>"},
		{"strips other tags", `<span class="x">hi</span><br/>`, "hi"},
		{"drops override blocks", `{\an8}{\pos(10,20)}Top`, "Top"},
		{"converts escapes", `one\Ntwo\nthree\hfour`, "one\ntwo\nthree four"},
		{"rewrites font colour", `<font color="#00ff00">green</font> plain`, "<color=#00ff00>green</color> plain"},
		{"font without colour is stripped", `<font face="Arial">x</font>`, "x"},
		{"leaves comparisons alone", "a < b and 3 > 2", "a < b and 3 > 2"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cues.FilterText(tc.in); got != tc.want {
				t.Fatalf("FilterText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSetSpanAndContains(t *testing.T) {
	set := cues.Set{{Start: 2, End: 5}, {Start: 1, End: 3}, {Start: 4, End: 9}}
	first, last := set.Span()
	if first != 1 || last != 9 {
		t.Fatalf("unexpected span %v..%v", first, last)
	}
	if !set[0].Contains(2) || !set[0].Contains(5) || set[0].Contains(5.01) {
		t.Fatal("Contains should use a closed window")
	}
	if a, b := (cues.Set{}).Span(); a != 0 || b != 0 {
		t.Fatal("empty set span should be zero")
	}
}
