package limits

import (
	"encoding/json"
	"net/http"
)

// denialBody is the wire shape of a 429 denial response. Field names match
// the Result contract so callers surface the decision verbatim.
type denialBody struct {
	Error string `json:"error"`
	Result
}

// WriteDenial writes the 429-equivalent response for a denied admission
// check, carrying limit type, usage snapshot, limits, upgrade message and
// suggested plans exactly as decided.
func WriteDenial(w http.ResponseWriter, res Result) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(denialBody{
		Error:  "limit_exceeded",
		Result: res,
	})
}
