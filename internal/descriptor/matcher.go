package descriptor

// Source tags which enrollment capture a reference descriptor came from.
type Source string

const (
	SourceWebcam   Source = "webcam"
	SourceUploaded Source = "uploaded_image"
)

// Candidate holds the reference descriptors of one enrolled customer.
// Either descriptor may be nil; a customer with neither can never match.
type Candidate struct {
	CustomerID string
	Webcam     Descriptor
	Uploaded   Descriptor
}

// Match is the result of a successful probe lookup.
type Match struct {
	CustomerID string
	Distance   float64
	Source     Source
}

// BestMatch finds the enrolled customer closest to the probe descriptor.
//
// A candidate is eligible only if at least one of its reference descriptors is
// strictly closer than threshold. Among eligible candidates the globally
// smallest distance wins; ties keep the earlier candidate in slice order, an
// arbitrary but stable choice. Returns nil when nothing is within threshold.
func BestMatch(probe Descriptor, candidates []Candidate, threshold float64) (*Match, error) {
	var best *Match

	consider := func(id string, ref Descriptor, src Source) error {
		if ref == nil {
			return nil
		}
		dist, err := Distance(probe, ref)
		if err != nil {
			return err
		}
		if dist >= threshold {
			return nil
		}
		if best == nil || dist < best.Distance {
			best = &Match{CustomerID: id, Distance: dist, Source: src}
		}
		return nil
	}

	for _, c := range candidates {
		if err := consider(c.CustomerID, c.Webcam, SourceWebcam); err != nil {
			return nil, err
		}
		if err := consider(c.CustomerID, c.Uploaded, SourceUploaded); err != nil {
			return nil, err
		}
	}
	return best, nil
}
