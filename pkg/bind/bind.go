// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

const defaultMaxBody = 4 << 20

func maxBodyBytes() int64 {
	if n := config.Current().MaxBodyBytes; n > 0 {
		return n
	}
	return defaultMaxBody
}

// JSON decodes r.Body into dest and validates it. The body is capped at
// MAX_BODY_BYTES and unknown fields are rejected, so payloads can only set
// what dest declares.
//
// Returns (errs, nil) on validation failures and (nil, err) when the body is
// malformed or too large.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err = dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}

	return nil, nil
}
