package binding

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answerRequest struct {
	Answer string `json:"answer" validate:"required,max=32"`
	Type   string `json:"type" default:"code" validate:"oneof=code math"`
}

func newRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/captcha/verify", strings.NewReader(body))
}

func TestJSON_Success(t *testing.T) {
	var req answerRequest
	require.NoError(t, JSON(newRequest(`{"answer":"a1b2"}`), &req))
	assert.Equal(t, "a1b2", req.Answer)
	assert.Equal(t, "code", req.Type)
}

func TestJSON_EmptyBody(t *testing.T) {
	var req answerRequest
	err := JSON(newRequest(""), &req)

	var bindErr *BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "bind_error", bindErr.Type)
	assert.Equal(t, "request body is empty", bindErr.Message)
}

func TestJSON_Malformed(t *testing.T) {
	var req answerRequest
	err := JSON(newRequest(`{"answer":`), &req)

	var bindErr *BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "json_error", bindErr.Type)
}

func TestJSON_ValidationErrors(t *testing.T) {
	var req answerRequest
	err := JSON(newRequest(`{"type":"emoji"}`), &req)

	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve, 2)
	assert.Equal(t, "Answer", ve[0].Field)
	assert.Equal(t, "is required", ve[0].Message)
	assert.Equal(t, "Type", ve[1].Field)
	assert.Equal(t, "must be one of: code math", ve[1].Message)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestJSON_DisallowUnknownFields(t *testing.T) {
	var req answerRequest
	err := JSON(newRequest(`{"answer":"x","extra":true}`), &req, WithDisallowUnknownFields())
	assert.Error(t, err)

	req = answerRequest{}
	assert.NoError(t, JSON(newRequest(`{"answer":"x","extra":true}`), &req))
}

func TestBindError_Error(t *testing.T) {
	assert.Equal(t, "validation_error: field 'Answer' is required",
		BindError{Type: "validation_error", Field: "Answer", Message: "is required"}.Error())
	assert.Equal(t, "bind_error: boom", BindError{Type: "bind_error", Message: "boom"}.Error())
	assert.Equal(t, "validation failed", ValidationErrors{}.Error())
}
