package errors

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/dropDatabas3/weatherjohn/internal/observability/logger"
)

// errorResponse estructura interna para la serialización JSON.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe el error como JSON.
// Maneja automáticamente errores de tipo *AppError y errores genéricos.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// Write negocia el formato según Accept (HTML para navegadores, JSON para el resto)
// y loguea la causa de los 5xx con el logger del request.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)

	if appErr.HTTPStatus >= 500 {
		logger.From(r.Context()).Error("request failed",
			logger.Layer("http"),
			logger.String("code", appErr.Code),
			logger.Err(appErr.Err),
		)
	}

	if !WantsHTML(r) {
		WriteError(w, appErr)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(appErr.HTTPStatus)
	_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>%d</title></head><body><h1>%s</h1>",
		appErr.HTTPStatus, html.EscapeString(appErr.Message))
	if appErr.Detail != "" {
		_, _ = fmt.Fprintf(w, "<p>%s</p>", html.EscapeString(appErr.Detail))
	}
	_, _ = fmt.Fprint(w, `<p><a href="/">Back</a></p></body></html>`)
}

// WantsHTML: el cliente acepta text/html (navegador o form submit).
func WantsHTML(r *http.Request) bool {
	accept := strings.ToLower(r.Header.Get("Accept"))
	return strings.Contains(accept, "text/html")
}
