package aiconnectors

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ValidateAPIKeyRequest represents the request for API key validation
type ValidateAPIKeyRequest struct {
	Provider Provider `json:"provider,omitempty"`
	APIKey   string   `json:"api_key"`
}

// ValidateAPIKeyResponse represents the response for API key validation
type ValidateAPIKeyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// RegisterHandlers registers the aiconnectors API handlers on the given group
func RegisterHandlers(g *echo.Group) {
	g.POST("/aiconnectors/validate-key", validateAPIKeyHandler)
	g.GET("/aiconnectors/models", listModelsHandler)
}

func validateAPIKeyHandler(c echo.Context) error {
	var req ValidateAPIKeyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ValidateAPIKeyResponse{
			Valid:   false,
			Message: "Invalid request body",
		})
	}

	if req.Provider != "" && req.Provider != ProviderGemini {
		return c.JSON(http.StatusBadRequest, ValidateAPIKeyResponse{
			Valid:   false,
			Message: fmt.Sprintf("Unsupported provider: %s", req.Provider),
		})
	}

	if req.APIKey == "" {
		return c.JSON(http.StatusBadRequest, ValidateAPIKeyResponse{
			Valid:   false,
			Message: "API key is required",
		})
	}

	log.Info().
		Str("api_key_prefix", keyPrefix(req.APIKey)+"...").
		Msg("Validating API key")

	valid, err := ValidateAPIKey(c.Request().Context(), req.APIKey)
	if err != nil {
		log.Error().Err(err).Msg("Error validating API key")
		return c.JSON(http.StatusBadGateway, ValidateAPIKeyResponse{
			Valid:   false,
			Message: fmt.Sprintf("Error validating API key: %v", err),
		})
	}

	message := "API key is valid"
	if !valid {
		message = "API key is invalid"
	}

	return c.JSON(http.StatusOK, ValidateAPIKeyResponse{
		Valid:   valid,
		Message: message,
	})
}

func listModelsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"provider": ProviderGemini,
		"models":   GetProviderModels(),
	})
}

// GetProviderModels returns the Gemini models the app is configured around
func GetProviderModels() []string {
	return []string{
		DefaultProModel,
		"gemini-2.5-pro",
		DefaultFlashModel,
	}
}
