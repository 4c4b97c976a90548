package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/branch-greeter/internal/descriptor"
	"github.com/kozaktomas/branch-greeter/internal/store"
)

// ErrUnknownFace is returned when no enrolled customer matches the probe
// within the rejection threshold.
var ErrUnknownFace = errors.New("no enrolled customer matches the face")

// FaceDetector extracts a descriptor from a captured image.
type FaceDetector interface {
	Detect(ctx context.Context, imageData []byte) (descriptor.Descriptor, error)
}

// Recognizer runs the walk-in pipeline: detect a face, match it against the
// enrolled population and place the customer into the queue.
type Recognizer struct {
	detector  FaceDetector
	customers store.CustomerReader
	manager   *Manager
	threshold float64
}

// NewRecognizer creates a recognizer. Threshold is the maximum Euclidean
// distance accepted as a match.
func NewRecognizer(det FaceDetector, customers store.CustomerReader, manager *Manager, threshold float64) *Recognizer {
	if threshold <= 0 {
		threshold = descriptor.DefaultThreshold
	}
	return &Recognizer{
		detector:  det,
		customers: customers,
		manager:   manager,
		threshold: threshold,
	}
}

// Result is the outcome of a successful recognition.
type Result struct {
	Customer *store.Customer   `json:"customer"`
	Match    *descriptor.Match `json:"match"`
	Entry    *store.QueueEntry `json:"entry"`
	// Queued is false when the customer was already in the queue and the
	// existing entry was returned unchanged.
	Queued bool `json:"queued"`
}

// Recognize identifies the customer on the image and enqueues them.
// Returns detector.ErrNoFace when no face is visible and ErrUnknownFace when
// nobody enrolled is close enough.
func (r *Recognizer) Recognize(ctx context.Context, imageData []byte) (*Result, error) {
	probe, err := r.detector.Detect(ctx, imageData)
	if err != nil {
		return nil, err
	}
	return r.RecognizeDescriptor(ctx, probe)
}

// RecognizeDescriptor matches an already-extracted descriptor and enqueues
// the matched customer.
func (r *Recognizer) RecognizeDescriptor(ctx context.Context, probe descriptor.Descriptor) (*Result, error) {
	candidates, err := r.customers.Candidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	match, err := descriptor.BestMatch(probe, candidates, r.threshold)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrUnknownFace
	}

	customer, err := r.customers.Get(ctx, match.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load matched customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("matched customer %s no longer enrolled", match.CustomerID)
	}

	entry, created, err := r.manager.Enqueue(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	return &Result{
		Customer: customer,
		Match:    match,
		Entry:    entry,
		Queued:   created,
	}, nil
}
