package errs

import "net/http"

const (
	ServerInternalError = 500

	ArgsError           = 1001
	RecordNotFoundError = 1004
	DuplicateKeyError   = 1005

	UnauthenticatedError = 1501
	TokenInvalidError    = 1502
	BadCredentialsError  = 1503

	MalformedPayloadError = 1601
	PersistenceError      = 1602
	ConnectionDeadError   = 1603
	AlreadyBoundError     = 1604
)

var (
	ErrInternalServer = NewCodeError(ServerInternalError, "ServerInternalError")
	ErrArgs           = NewCodeError(ArgsError, "ArgsError")
	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "RecordNotFoundError")
	ErrDuplicateUser  = NewCodeError(DuplicateKeyError, "DuplicateUserError")

	ErrUnauthenticated = NewCodeError(UnauthenticatedError, "Unauthenticated")
	ErrTokenInvalid    = NewCodeError(TokenInvalidError, "TokenInvalid")
	ErrBadCredentials  = NewCodeError(BadCredentialsError, "BadCredentials")

	// hub taxonomy
	ErrMalformedPayload = NewCodeError(MalformedPayloadError, "MalformedPayload")
	ErrPersistence      = NewCodeError(PersistenceError, "PersistenceError")
	ErrConnectionDead   = NewCodeError(ConnectionDeadError, "ConnectionDead")
	ErrAlreadyBound     = NewCodeError(AlreadyBoundError, "AlreadyBound")
)

// HTTPStatus maps an error chain to the response status the api layer writes.
func HTTPStatus(err error) int {
	ce := Code(err)
	if ce == nil {
		return http.StatusInternalServerError
	}
	switch ce.Code {
	case ArgsError, MalformedPayloadError:
		return http.StatusBadRequest
	case RecordNotFoundError:
		return http.StatusNotFound
	case DuplicateKeyError, AlreadyBoundError:
		return http.StatusConflict
	case UnauthenticatedError, TokenInvalidError, BadCredentialsError:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
