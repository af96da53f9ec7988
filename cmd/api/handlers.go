package main

import (
	"errors"
	"fmt"
	"net/http"

	"techform/internal/data"
)

// formResponse is the render view of the controller state.
type formResponse struct {
	data.State
	StrengthLabel string `json:"strength_label"`
}

func (app *application) formView() formResponse {
	state := app.form.Snapshot()
	return formResponse{
		State:         state,
		StrengthLabel: app.messages.StrengthLabel(state.Strong),
	}
}

// showFormHandler returns the current values, errors, output and password indicator.
func (app *application) showFormHandler(w http.ResponseWriter, r *http.Request) {
	err := app.writeJSON(w, http.StatusOK, envelope{"data": app.formView()}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateFieldHandler sets one raw field value, e.g. {"path":"techs.0.title","value":"Go"}.
func (app *application) updateFieldHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Path  string `json:"path"`
		Value string `json:"value"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.form.SetField(input.Path, input.Value)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrIndexOutOfRange):
			app.notFoundResponse(w, r)
		default:
			app.badRequestResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"data": app.formView()}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// addTechHandler appends an empty technology row.
func (app *application) addTechHandler(w http.ResponseWriter, r *http.Request) {
	id := app.form.AddTech()

	index, ok := app.form.IndexOf(id)
	if !ok {
		// removed by a concurrent request before we could report it
		app.notFoundResponse(w, r)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/form/techs/%d", index))

	app.logger.DebugWithContext(r.Context(), "tech added", "id", id, "index", index)

	err := app.writeJSON(w, http.StatusCreated, envelope{"data": envelope{"id": id, "index": index}}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// removeTechHandler deletes the technology row at :index.
func (app *application) removeTechHandler(w http.ResponseWriter, r *http.Request) {
	index, err := app.readIndexParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.form.RemoveTech(index)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrIndexOutOfRange):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "tech successfully removed"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// passwordStrengthHandler reports the advisory strength indicator.
func (app *application) passwordStrengthHandler(w http.ResponseWriter, r *http.Request) {
	strong := app.form.PasswordStrength()

	err := app.writeJSON(w, http.StatusOK, envelope{"data": envelope{
		"strong": strong,
		"label":  app.messages.StrengthLabel(strong),
	}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// submitFormHandler validates the current form and, on success, hands it to the sink.
func (app *application) submitFormHandler(w http.ResponseWriter, r *http.Request) {
	res, err := app.form.Submit(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, data.ErrSubmitInProgress):
			app.submitConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if !res.OK() {
		app.failedValidationResponse(w, r, res.ErrorMap())
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"data": envelope{
		"value":  res.Value,
		"output": app.form.Snapshot().Output,
	}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// validateUserHandler runs the schema over a request body without touching form state.
// knowledge may be sent as a JSON number or as text.
func (app *application) validateUserHandler(w http.ResponseWriter, r *http.Request) {
	var input data.FormInput

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	res := app.schema.Validate(input)
	if !res.OK() {
		app.failedValidationResponse(w, r, res.ErrorMap())
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"data": res.Value}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
