package services

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/socially/internal/shared"
)

// decodeJSON decodes body into a T. Any failure, including an empty body, is a [shared.ErrDecodeFailure].
func decodeJSON[T any](body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", shared.ErrDecodeFailure, err)
	}
	return v, nil
}
