package server

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/alfredjeanlab/ballot/internal/identity"
	"github.com/alfredjeanlab/ballot/internal/model"
)

// errorCode classifies err into an HTTP status and a gRPC code.
func errorCode(err error) (int, codes.Code) {
	switch {
	case isInputError(err):
		return http.StatusBadRequest, codes.InvalidArgument
	case errors.Is(err, model.ErrInvalidReference):
		return http.StatusNotFound, codes.NotFound
	case errors.Is(err, model.ErrNotInitialized):
		return http.StatusConflict, codes.FailedPrecondition
	case errors.Is(err, model.ErrAlreadyInitialized):
		return http.StatusConflict, codes.AlreadyExists
	case errors.Is(err, identity.ErrUnauthenticated), errors.Is(err, identity.ErrMissingIdentity):
		return http.StatusUnauthorized, codes.Unauthenticated
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, codes.ResourceExhausted
	}
	return http.StatusInternalServerError, codes.Internal
}

// grpcError maps a ledger error to a gRPC status error.
func grpcError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	_, code := errorCode(err)
	return status.Error(code, err.Error())
}

// writeErr writes err with the HTTP status it maps to.
func writeErr(w http.ResponseWriter, err error) {
	code, _ := errorCode(err)
	writeError(w, code, err.Error())
}
