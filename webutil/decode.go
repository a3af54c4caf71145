package webutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxJSONBodyBytes bounds JSON request bodies.
const maxJSONBodyBytes = 1 << 20

// DecodeJSON decodes the request body into dst. Unknown fields are ignored so
// that clients may send back whole records they received.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrBadRequest("Request body is required")
		}
		return ErrBadRequestWrap("Invalid request payload: "+err.Error(), err)
	}
	return nil
}
