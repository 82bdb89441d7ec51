// Package models defines the request and response bodies of the HTTP API.
package models

// TransliterationRequest is the body of POST /transliterate.
type TransliterationRequest struct {
	Text        string   `json:"text"`
	ToScript    string   `json:"to_script"`
	FromScript  string   `json:"from_script,omitempty"` // empty or "autodetect"
	Nativize    *bool    `json:"nativize,omitempty"`    // default true
	PreOptions  []string `json:"pre_options,omitempty"`
	PostOptions []string `json:"post_options,omitempty"`
}

// NativizeOrDefault reports the nativize flag, which defaults to true.
func (r TransliterationRequest) NativizeOrDefault() bool {
	if r.Nativize == nil {
		return true
	}
	return *r.Nativize
}

// TransliterationResult has the same shape for success and failure. The
// request succeeded iff Error is empty.
type TransliterationResult struct {
	Original        string `json:"original"`
	Transliteration string `json:"transliteration"`
	FromScript      string `json:"from_script"`
	ToScript        string `json:"to_script"`
	Engine          string `json:"engine,omitempty"`
	Fallback        bool   `json:"fallback,omitempty"`
	Degraded        bool   `json:"degraded,omitempty"`
	Error           string `json:"error,omitempty"`
}

// OCRResult is the response of POST /ocr.
type OCRResult struct {
	Text            string  `json:"text"`
	Confidence      float64 `json:"confidence,omitempty"`
	Transliteration string  `json:"transliteration,omitempty"`
	FromScript      string  `json:"from_script,omitempty"`
	ToScript        string  `json:"to_script,omitempty"`
	Degraded        bool    `json:"degraded,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// ScriptCatalog lists the scripts accepted by the active engine.
type ScriptCatalog struct {
	SupportedScripts []string `json:"supported_scripts"`
}

// HealthResponse is static: it reports configuration, not probes.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Engines map[string]string `json:"engines"`
}

// ErrorResponse is used for client errors outside the result types.
type ErrorResponse struct {
	Error string `json:"error"`
}
