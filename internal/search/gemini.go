package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// GeminiGenerator asks Gemini for a JSON array of places.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a client for the Gemini API.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing Gemini API key", ErrInvalidCredentials)
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: modelName}, nil
}

// Generate sends prompt with the place response schema.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
		ResponseSchema:   placesSchema,
	})
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return resp.Text(), nil
}

func classifyGeminiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden ||
			strings.Contains(apiErr.Message, "API key not valid") {
			return fmt.Errorf("%w (%s)", ErrInvalidCredentials, apiErr.Status)
		}
		return fmt.Errorf("%w: %s", ErrUpstream, apiErr.Message)
	}
	if strings.Contains(err.Error(), "API key not valid") {
		return ErrInvalidCredentials
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

var placesSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"place_id":               {Type: genai.TypeString, Description: "Google Maps Place ID"},
			"name":                   {Type: genai.TypeString, Description: "Nome do estabelecimento"},
			"formatted_address":      {Type: genai.TypeString, Description: "Endereço completo"},
			"rating":                 {Type: genai.TypeNumber, Description: "Avaliação média (0 a 5)"},
			"user_ratings_total":     {Type: genai.TypeInteger, Description: "Número total de avaliações"},
			"business_status":        {Type: genai.TypeString, Description: "Status do negócio (ex: OPERATIONAL)"},
			"website":                {Type: genai.TypeString, Description: "Website do estabelecimento"},
			"formatted_phone_number": {Type: genai.TypeString, Description: "Número de telefone formatado"},
		},
		Required: []string{"place_id", "name", "formatted_address", "rating", "user_ratings_total", "business_status"},
	},
}
