package controllers

import (
	"errors"
	"net/http"

	"github.com/lintang-b-s/indoornav/pkg/util"
	"go.uber.org/zap"
)

// statusCode. maps the code attached by the usecase layer to an http status.
func statusCode(err error) int {
	var ierr *util.Error
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	}
	switch ierr.Code() {
	case util.ErrNotFound:
		return http.StatusNotFound
	case util.ErrBadParamInput:
		return http.StatusBadRequest
	case util.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func codeText(status int) string {
	return http.StatusText(status)
}

// errorMessage. internal errors are not leaked to clients.
func errorMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return util.MessageInternalServerError
	}
	return err.Error()
}

func (api *routingAPI) logError(r *http.Request, err error) {
	api.log.Error("request failed", zap.Error(err),
		zap.String("method", r.Method), zap.String("uri", r.URL.RequestURI()))
}

func (api *routingAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	env := envelope{"error": errorBody{Code: codeText(status), Message: message}}
	if err := api.writeJSON(w, status, env, nil); err != nil {
		api.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (api *routingAPI) ServerErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.logError(r, err)
	api.errorResponse(w, r, http.StatusInternalServerError, util.MessageInternalServerError)
}

func (api *routingAPI) BadRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (api *routingAPI) NotFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusNotFound, err.Error())
}

func (api *routingAPI) getStatusCode(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	switch status {
	case http.StatusInternalServerError:
		api.ServerErrorResponse(w, r, err)
	case http.StatusNotFound:
		api.NotFoundResponse(w, r, err)
	default:
		api.errorResponse(w, r, status, err.Error())
	}
}
