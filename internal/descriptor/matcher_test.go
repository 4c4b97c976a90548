package descriptor

import (
	"errors"
	"testing"
)

// desc builds a constant-valued descriptor for match tests.
func desc(v float32, n int) Descriptor {
	d := make(Descriptor, n)
	for i := range d {
		d[i] = v
	}
	return d
}

func TestBestMatch_NoCandidates(t *testing.T) {
	m, err := BestMatch(desc(0, 4), nil, DefaultThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Errorf("expected no match, got %+v", m)
	}
}

func TestBestMatch_ExactMatch(t *testing.T) {
	probe := desc(0.5, 4)
	candidates := []Candidate{
		{CustomerID: "c1", Webcam: desc(0.5, 4)},
	}

	m, err := BestMatch(probe, candidates, DefaultThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.CustomerID != "c1" {
		t.Errorf("expected customer c1, got %s", m.CustomerID)
	}
	if m.Distance != 0 {
		t.Errorf("expected distance 0, got %f", m.Distance)
	}
	if m.Source != SourceWebcam {
		t.Errorf("expected webcam source, got %s", m.Source)
	}
}

func TestBestMatch_OutsideThreshold(t *testing.T) {
	probe := desc(0, 4)
	candidates := []Candidate{
		{CustomerID: "c1", Webcam: desc(1, 4)}, // distance 2
	}

	m, err := BestMatch(probe, candidates, DefaultThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Errorf("expected no match beyond threshold, got %+v", m)
	}
}

func TestBestMatch_ThresholdIsExclusive(t *testing.T) {
	probe := desc(0, 1)
	candidates := []Candidate{
		{CustomerID: "c1", Webcam: Descriptor{0.55}}, // distance exactly 0.55
	}

	m, err := BestMatch(probe, candidates, 0.55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Errorf("distance equal to threshold must not match, got %+v", m)
	}
}

func TestBestMatch_PicksGlobalMinimum(t *testing.T) {
	probe := desc(0, 2)
	candidates := []Candidate{
		{CustomerID: "far", Webcam: Descriptor{0.3, 0}},                            // 0.3
		{CustomerID: "near", Webcam: Descriptor{0.2, 0}, Uploaded: Descriptor{0.1, 0}}, // 0.1 via upload
	}

	m, err := BestMatch(probe, candidates, DefaultThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.CustomerID != "near" {
		t.Errorf("expected customer near, got %s", m.CustomerID)
	}
	if m.Source != SourceUploaded {
		t.Errorf("expected uploaded source, got %s", m.Source)
	}
}

func TestBestMatch_TieKeepsFirstCandidate(t *testing.T) {
	probe := desc(0, 2)
	ref := Descriptor{0.2, 0}
	candidates := []Candidate{
		{CustomerID: "first", Webcam: ref},
		{CustomerID: "second", Webcam: ref},
	}

	m, err := BestMatch(probe, candidates, DefaultThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.CustomerID != "first" {
		t.Errorf("tie should keep the first candidate, got %s", m.CustomerID)
	}
}

func TestBestMatch_DimensionMismatchFailsLoudly(t *testing.T) {
	probe := desc(0, 4)
	candidates := []Candidate{
		{CustomerID: "ok", Webcam: desc(0.1, 4)},
		{CustomerID: "broken", Webcam: desc(0.1, 3)},
	}

	_, err := BestMatch(probe, candidates, DefaultThreshold)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestBestMatch_SkipsCandidatesWithoutDescriptors(t *testing.T) {
	probe := desc(0, 2)
	candidates := []Candidate{
		{CustomerID: "empty"},
		{CustomerID: "enrolled", Webcam: Descriptor{0.1, 0}},
	}

	m, err := BestMatch(probe, candidates, DefaultThreshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil || m.CustomerID != "enrolled" {
		t.Errorf("expected enrolled customer, got %+v", m)
	}
}
