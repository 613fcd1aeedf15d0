package model

// taxonomy codes returned to tpp/psu facing callers
const (
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeCrypto        = "CRYPTO_ERROR"
	ErrorCodeConflict      = "CONCURRENCY_CONFLICT"
	ErrorCodeExpired       = "EXPIRED"
	ErrorCodeWrongChecksum = "WRONG_CHECKSUM"
	ErrorCodeInternal      = "INTERNAL_ERROR"
)

/**
* Error value used across the module boundaries. The empty CmsError signals
* success, callers compare against the zero value. Stack traces of the root
* error are never part of the returned contract.
 */
type CmsError struct {
	Code      string
	Message   string
	RootError error
}

func (err *CmsError) Error() string {
	return err.Message
}

func (err *CmsError) GetRoot() error {
	return err.RootError
}

func ValidationError(message string) CmsError {
	return CmsError{Code: ErrorCodeValidation, Message: message}
}

func NotFoundError(message string) CmsError {
	return CmsError{Code: ErrorCodeNotFound, Message: message}
}

func CryptoError(message string, root error) CmsError {
	return CmsError{Code: ErrorCodeCrypto, Message: message, RootError: root}
}

func ConflictError(message string) CmsError {
	return CmsError{Code: ErrorCodeConflict, Message: message}
}

func ExpiredError(message string) CmsError {
	return CmsError{Code: ErrorCodeExpired, Message: message}
}

func WrongChecksumError(message string) CmsError {
	return CmsError{Code: ErrorCodeWrongChecksum, Message: message}
}

func InternalError(message string, root error) CmsError {
	return CmsError{Code: ErrorCodeInternal, Message: message, RootError: root}
}
