package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/kozaktomas/branch-greeter/internal/detector"
	"github.com/kozaktomas/branch-greeter/internal/queue"
)

// RecognizeHandler runs the walk-in pipeline for captured webcam frames.
type RecognizeHandler struct {
	recognizer *queue.Recognizer
}

// NewRecognizeHandler creates a recognize handler.
func NewRecognizeHandler(recognizer *queue.Recognizer) *RecognizeHandler {
	return &RecognizeHandler{recognizer: recognizer}
}

// Recognize handles POST /recognize. Expects a multipart form with an "image"
// field, identifies the customer and places them in the queue.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	result, err := h.recognizer.Recognize(r.Context(), imageData)
	switch {
	case errors.Is(err, detector.ErrNoFace):
		respondError(w, http.StatusUnprocessableEntity, "no face detected in image")
		return
	case errors.Is(err, queue.ErrUnknownFace):
		respondError(w, http.StatusNotFound, "no enrolled customer matches the face")
		return
	case errors.Is(err, detector.ErrDetectionFailed):
		log.Printf("Face detection failed: %v", err)
		respondError(w, http.StatusBadGateway, "face detection unavailable")
		return
	case err != nil:
		log.Printf("Recognition failed: %v", err)
		respondError(w, http.StatusInternalServerError, "recognition failed")
		return
	}

	status := http.StatusOK
	if result.Queued {
		status = http.StatusCreated
	}
	respondJSON(w, status, result)
}
