package backend

// DefaultModel is used when a request does not name one.
const DefaultModel = "meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo"

// DefaultTemperature is sent when a request leaves Temperature unset.
const DefaultTemperature = 0.7

// Temperature returns a pointer suitable for GenerateRequest.Temperature.
func Temperature(v float64) *float64 { return &v }

// GenerateRequest is the body of /api/generate and /api/stream-generate.
// A nil Temperature means DefaultTemperature; zero is sent as is.
type GenerateRequest struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Model    string `json:"model"`
	Error    string `json:"error"`
}

type imageRequest struct {
	Prompt string `json:"prompt"`
}

type imageResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"image_url"`
	Error    string `json:"error"`
}

// HealthStatus is returned by GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Model describes one entry of GET /api/models.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type modelsResponse struct {
	Models []Model `json:"models"`
}
