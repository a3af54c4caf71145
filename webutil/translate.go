package webutil

import (
	"errors"
	"net/http"

	"github.com/coreybb/denima/auth"
	"github.com/coreybb/denima/datastore"
	"github.com/coreybb/denima/storage"
)

// Translate maps the sentinel and typed errors of the domain packages onto
// HTTPErrors. Errors it does not recognise are returned unchanged.
func Translate(err error) error {
	var (
		httpErr   *HTTPError
		authValid *auth.ValidationError
		upload    *storage.UploadError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &httpErr):
		return err
	case errors.As(err, &authValid):
		he := NewHTTPErrorWrap(http.StatusBadRequest, KindValidation, authValid.Message, err)
		he.Field = authValid.Field
		return he
	case errors.As(err, &upload):
		he := NewHTTPErrorWrap(http.StatusBadRequest, KindValidation, upload.Message, err)
		he.Field = upload.Field
		return he
	case errors.Is(err, auth.ErrMissingToken):
		return NewHTTPErrorWrap(http.StatusUnauthorized, KindMissingToken, "Authorization token is required", err)
	case errors.Is(err, auth.ErrExpiredToken):
		return NewHTTPErrorWrap(http.StatusUnauthorized, KindExpiredToken, "Token has expired", err)
	case errors.Is(err, auth.ErrMalformedToken):
		return NewHTTPErrorWrap(http.StatusUnauthorized, KindMalformedToken, "Token is invalid", err)
	case errors.Is(err, auth.ErrUserNotFound):
		return NewHTTPErrorWrap(http.StatusUnauthorized, KindUserNotFound, "User not found", err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return NewHTTPErrorWrap(http.StatusUnauthorized, KindInvalidCredentials, "Invalid username or password", err)
	case errors.Is(err, auth.ErrForbidden):
		return NewHTTPErrorWrap(http.StatusForbidden, KindForbidden, "Admin privileges required", err)
	case errors.Is(err, auth.ErrBanned):
		return NewHTTPErrorWrap(http.StatusForbidden, KindBanned, "Your account has been banned", err)
	case errors.Is(err, datastore.ErrDuplicateUsername):
		he := NewHTTPErrorWrap(http.StatusBadRequest, KindDuplicateUsername, "Username already exists", err)
		he.Field = "username"
		return he
	case errors.Is(err, datastore.ErrDuplicateEmail):
		he := NewHTTPErrorWrap(http.StatusBadRequest, KindDuplicateEmail, "Email already exists", err)
		he.Field = "email"
		return he
	case errors.Is(err, datastore.ErrInvalidSelection):
		he := NewHTTPErrorWrap(http.StatusBadRequest, KindValidation, "product_ids must reference active services", err)
		he.Field = "product_ids"
		return he
	case errors.Is(err, datastore.ErrProductUnavailable):
		he := NewHTTPErrorWrap(http.StatusBadRequest, KindValidation, "Product is not available", err)
		he.Field = "product_id"
		return he
	}
	return err
}
