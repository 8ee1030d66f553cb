package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromUnwrapsWrappedErrors(t *testing.T) {
	base := NotFound("channel not found")
	wrapped := fmt.Errorf("load channel: %w", base)

	got := From(wrapped)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.Equal(t, "channel not found", got.Message)
}

func TestFromHidesUnknownErrors(t *testing.T) {
	got := From(errors.New("dial tcp 10.0.0.1:27017: connection refused"))
	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, "internal error", got.Message)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(CodeUnauthorized))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(CodeForbidden))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeBadRequest))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(CodeTooManyRequests))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeInternal))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("something_else"))
}
