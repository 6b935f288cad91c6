package httputil

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInternalError      = "internal_error"
	CodeInvalidRequestBody = "invalid_request_body"
	CodeInvalidPathParam   = "invalid_path_param"
	CodeTooManyRequests    = "too_many_requests"
	CodeCooldownActive     = "cooldown_active"

	// Authentication middleware
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeMissingAuth        = "missing_auth"
	CodeTokenExpired       = "token_expired"
	CodeInvalidToken       = "invalid_token"
	CodeInvalidTokenUserID = "invalid_token_user_id"

	// Registration and credentials
	CodeEmailAlreadyExists = "email_already_exists"
	CodeEmailRequired      = "email_required"
	CodePasswordRequired   = "password_required"
	CodePasswordTooShort   = "password_too_short"
	CodeFirstNameRequired  = "first_name_required"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotVerified   = "email_not_verified"
	CodeWrongPassword      = "wrong_password"
	CodeNotOwner           = "not_owner"
	CodeUserNotFound       = "user_not_found"
	CodeMailUndelivered    = "mail_undelivered"

	// Tokens
	CodeRefreshTokenRequired      = "refresh_token_required"
	CodeInvalidRefreshToken       = "invalid_refresh_token"
	CodeVerificationTokenRequired = "verification_token_required"
	CodeAlreadyVerified           = "already_verified"
	CodeVerificationFailed        = "verification_failed"
	CodeInvalidResetToken         = "invalid_reset_token"
)
