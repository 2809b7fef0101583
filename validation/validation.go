package validation

import (
	"encoding/json"
	"io"
	"net/http"

	apperrors "github.com/nijaru/yt-ask/errors"
	"github.com/pkg/errors"
)

// InvalidBodyMessage is the client-facing text for an undecodable body.
const InvalidBodyMessage = "Invalid JSON request body"

type Validator struct {
	maxBodyBytes int64
}

func NewValidator(maxBodyBytes int64) *Validator {
	return &Validator{maxBodyBytes: maxBodyBytes}
}

// DecodeJSON reads r's body into dst. An empty body decodes as an empty
// object so that missing fields are reported by the field checks. Decoder
// failures are validation errors whose cause keeps the decoder's message.
func (v *Validator) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	const op = "Validator.DecodeJSON"

	body := r.Body
	if v.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, v.maxBodyBytes)
	}

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.InvalidInput(op, err, "Request body too large")
		}
		return apperrors.InvalidInput(op, err, InvalidBodyMessage)
	}
	return nil
}

// Required fails with message when any value is empty.
func Required(message string, values ...string) error {
	for _, value := range values {
		if value == "" {
			return apperrors.InvalidInput("validation.Required", nil, message)
		}
	}
	return nil
}
