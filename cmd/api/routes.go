package main

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"techform/internal/data"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

	router.HandlerFunc(http.MethodGet, "/v1/form", app.showFormHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/form/fields", app.updateFieldHandler)
	router.HandlerFunc(http.MethodPost, "/v1/form/techs", app.addTechHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/form/techs/:index", app.removeTechHandler)
	router.HandlerFunc(http.MethodGet, "/v1/form/password-strength", app.passwordStrengthHandler)
	router.HandlerFunc(http.MethodPost, "/v1/form/submit", app.submitFormHandler)

	router.HandlerFunc(http.MethodPost, "/v1/users/validate", app.validateUserHandler)

	return app.correlationID(app.logRequest(app.rateLimit(app.rateLimiter)(app.recoverPanic(router))))
}

func (app *application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	healthResponse := data.HealthCheckResponse{
		Status: "available",
		SystemInfo: data.SystemInfo{
			Environment: app.config.env,
			Version:     version,
			Locale:      app.config.locale,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		},
	}

	err := app.writeJSON(w, http.StatusOK, envelope{"data": healthResponse}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
