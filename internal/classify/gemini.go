package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-2.5-flash"

const prompt = `Tu es un expert en logistique. Analyse l'image de ce document (Bon de Livraison ou Bon de Retour).

RÈGLES D'EXTRACTION STRICTES :
1. 'orderNumber' :
   - Localise le texte "Order number :".
   - Pour un Bon de Livraison (BL) : le numéro commence OBLIGATOIREMENT par 15, 16, 17 ou 18.
   - Pour un Bon de Retour (BR) : extrais le numéro tel quel (souvent alphanumérique, ex: 8QAL-4MQ8).

2. 'clientName' :
   - Extrais le nom dans le champ "Destinataire" ou "Adresse d'enlèvement".

3. 'flux' :
   - Si le titre du document est "Bon de Retour", mets "RET".
   - Si c'est un "Bon de Livraison", cherche les codes de mode de livraison :
     * "CC1", "CU1" ou "CU2" -> "CDC".
     * "LC1", "LU1" ou "LU2" -> "LCD".
     * Sinon, laisse vide.

Réponds UNIQUEMENT en JSON sous ce format : {"orderNumber": "string", "clientName": "string", "flux": "string"}`

// GeminiClassifier reads documents with Google Gemini.
type GeminiClassifier struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClassifier creates a Gemini-backed classifier.
func NewGeminiClassifier(ctx context.Context, apiKey, modelName string) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if modelName == "" {
		modelName = defaultModel
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"

	return &GeminiClassifier{client: client, model: model}, nil
}

// Close closes the client connection.
func (c *GeminiClassifier) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Classify sends the image with the extraction instruction.
func (c *GeminiClassifier) Classify(ctx context.Context, image []byte, mimeType string) (Extraction, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(imageFormat(mimeType), image))
	if err != nil {
		return Extraction{}, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Extraction{}, ErrNothingExtracted
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return ParseExtraction(text.String())
}

// imageFormat turns "image/png" into "png". genai.ImageData expects the
// subtype only.
func imageFormat(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	format := strings.TrimPrefix(mimeType, "image/")
	if format == "" || strings.Contains(format, "/") {
		return "jpeg"
	}
	return format
}
