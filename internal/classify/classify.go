package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pallet-board-backend/internal/board"
)

var (
	// ErrMalformedResult is returned when the classifier answer is not JSON.
	ErrMalformedResult = errors.New("malformed classification result")
	// ErrNothingExtracted is returned when neither number nor client was found.
	ErrNothingExtracted = errors.New("no information extracted")
)

// Extraction is the best-effort reading of a delivery or return note.
type Extraction struct {
	OrderNumber string     `json:"orderNumber"`
	ClientName  string     `json:"clientName"`
	Flux        board.Flux `json:"flux"`
}

// Classifier reads a document photo.
type Classifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) (Extraction, error)
}

// ParseExtraction decodes a classifier answer, tolerating markdown code
// fences. An unknown flux is dropped rather than rejected.
func ParseExtraction(text string) (Extraction, error) {
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		clean = "{}"
	}

	var raw struct {
		OrderNumber string `json:"orderNumber"`
		ClientName  string `json:"clientName"`
		Flux        string `json:"flux"`
	}
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}

	ex := Extraction{
		OrderNumber: strings.TrimSpace(raw.OrderNumber),
		ClientName:  strings.TrimSpace(raw.ClientName),
	}
	if f, err := board.ParseFlux(strings.ToUpper(strings.TrimSpace(raw.Flux))); err == nil {
		ex.Flux = f
	}
	if ex.OrderNumber == "" && ex.ClientName == "" {
		return Extraction{}, ErrNothingExtracted
	}
	return ex, nil
}
