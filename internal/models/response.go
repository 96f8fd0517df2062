package models

import "encoding/json"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse is the envelope every endpoint answers with
type APIResponse struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message interface{} `json:"message,omitempty"`
}

// MarshalJSON always writes data on success, and code plus message on error.
func (r APIResponse) MarshalJSON() ([]byte, error) {
	if r.Status == StatusSuccess {
		return json.Marshal(struct {
			Status string      `json:"status"`
			Data   interface{} `json:"data"`
		}{r.Status, r.Data})
	}
	return json.Marshal(struct {
		Status  string      `json:"status"`
		Code    string      `json:"code"`
		Message interface{} `json:"message"`
	}{r.Status, r.Code, r.Message})
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Status: StatusSuccess,
		Data:   data,
	}
}

// NewErrorResponse creates an error response. message is either a string or a list of strings.
func NewErrorResponse(code string, message interface{}) APIResponse {
	return APIResponse{
		Status:  StatusError,
		Code:    code,
		Message: message,
	}
}

// NewValidationErrorResponse creates an invalid_parameters response
func NewValidationErrorResponse(errors []string) APIResponse {
	return NewErrorResponse(CodeInvalidParameters, errors)
}

// Machine-readable error codes.
const (
	CodeInvalidParameters      = "invalid_parameters"
	CodeUnauthorized           = "unauthorized"
	CodePermissionDenied       = "permission_denied"
	CodeInvalidEmailOrPassword = "invalid_email_or_password"
	CodeFailedToCreateToken    = "failed_to_create_token"
	CodeCategoryNotFound       = "category_not_found"
	CodeLevelNotFound          = "level_not_found"
	CodeLevelNotEmpty          = "level_not_empty"
	CodeTeamNotFound           = "team_not_found"
	CodeTeamNameExists         = "team_name_already_exist"
	CodeEmailExists            = "email_already_exist"
	CodeEmailOrTeamExists      = "email_or_team_already_exist"
	CodeDatabaseError          = "database_error"
)
