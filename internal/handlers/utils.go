package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"media-dashboard/internal/logging"
)

// errorResponse is the JSON error body for the API. Solution carries a
// remediation hint for codec-related failures.
type errorResponse struct {
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	Solution string `json:"solution,omitempty"`
}

// writeJSON encodes v as JSON and writes it to the response writer. Encoding
// errors are logged since we typically cannot recover from them mid-response.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeError writes an errorResponse with the given status code.
func writeError(w http.ResponseWriter, statusCode int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, resp)
}

// errPathEscapes marks a client path that resolves outside the video root.
var errPathEscapes = errors.New("path escapes video root")

// resolveUnderRoot joins a client-supplied relative path onto root,
// canonicalizes it, and verifies the result still lives under root. Client
// input never reaches the filesystem without passing this check.
func resolveUnderRoot(root, clientPath string) (string, error) {
	full := filepath.Join(root, filepath.FromSlash(clientPath))

	abs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errPathEscapes
	}

	return abs, nil
}
