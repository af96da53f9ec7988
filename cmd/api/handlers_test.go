package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techform/internal/data"
	"techform/internal/jsonlog"
)

func TestHealthcheckHandler(t *testing.T) {
	app := newTestApplication(t)

	rr := send(t, app.routes(), http.MethodGet, "/v1/healthcheck", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	body := decode(t, rr)
	health := body["data"].(map[string]any)
	assert.Equal(t, "available", health["status"])

	info := health["system_info"].(map[string]any)
	assert.Equal(t, "test", info["environment"])
	assert.Equal(t, "en", info["locale"])
	assert.NotEmpty(t, info["timestamp"])
}

func TestFormLifecycle(t *testing.T) {
	app := newTestApplication(t)
	handler := app.routes()

	for _, body := range []string{
		`{"path":"name","value":"joão silva"}`,
		`{"path":"email","value":"USER@GMAIL.COM"}`,
		`{"path":"password","value":"Abcdef1!"}`,
	} {
		rr := send(t, handler, http.MethodPatch, "/v1/form/fields", body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	for i := 0; i < 2; i++ {
		rr := send(t, handler, http.MethodPost, "/v1/form/techs", "")
		require.Equal(t, http.StatusCreated, rr.Code)

		created := decode(t, rr)["data"].(map[string]any)
		assert.Len(t, created["id"], 36)
		assert.Equal(t, float64(i), created["index"])
		assert.Equal(t, "/v1/form/techs/"+string(rune('0'+i)), rr.Header().Get("Location"))
	}

	for _, body := range []string{
		`{"path":"techs.0.title","value":"Go"}`,
		`{"path":"techs.0.knowledge","value":"1"}`,
		`{"path":"techs.1.title","value":"SQL"}`,
		`{"path":"techs.1.knowledge","value":"100"}`,
	} {
		rr := send(t, handler, http.MethodPatch, "/v1/form/fields", body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr := send(t, handler, http.MethodGet, "/v1/form/password-strength", "")
	require.Equal(t, http.StatusOK, rr.Code)
	strength := decode(t, rr)["data"].(map[string]any)
	assert.Equal(t, true, strength["strong"])
	assert.Equal(t, "strong password", strength["label"])

	rr = send(t, handler, http.MethodPost, "/v1/form/submit", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	result := decode(t, rr)["data"].(map[string]any)
	value := result["value"].(map[string]any)
	assert.Equal(t, "João Silva", value["name"])
	assert.Equal(t, "user@gmail.com", value["email"])
	assert.Len(t, value["techs"], 2)
	assert.Contains(t, result["output"], `"name": "João Silva"`)

	rr = send(t, handler, http.MethodGet, "/v1/form", "")
	require.Equal(t, http.StatusOK, rr.Code)
	form := decode(t, rr)["data"].(map[string]any)
	assert.Equal(t, "idle", form["phase"])
	assert.Equal(t, true, form["strong"])
	assert.NotEmpty(t, form["output"])
	assert.Nil(t, form["errors"])
}

func TestSubmitFormHandler_ValidationErrors(t *testing.T) {
	app := newTestApplication(t)
	handler := app.routes()

	rr := send(t, handler, http.MethodPatch, "/v1/form/fields", `{"path":"email","value":"user@hotmail.com"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = send(t, handler, http.MethodPost, "/v1/form/submit", "")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	errs := decode(t, rr)["error"].(map[string]any)
	assert.Equal(t, data.EnglishMessages.NameRequired, errs["name"])
	assert.Equal(t, data.EnglishMessages.EmailDomain, errs["email"])
	assert.Equal(t, data.EnglishMessages.PasswordTooShort, errs["password"])
	assert.Equal(t, data.EnglishMessages.TechsTooFew, errs["techs"])

	rr = send(t, handler, http.MethodGet, "/v1/form", "")
	form := decode(t, rr)["data"].(map[string]any)
	assert.Len(t, form["errors"], 4)
	assert.Equal(t, "weak password", form["strength_label"])
}

func TestSubmitFormHandler_Conflict(t *testing.T) {
	app := newTestApplication(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	app.form = data.NewController(app.schema, data.WithSink(data.SinkFunc(
		func(context.Context, data.FormValues) error {
			close(entered)
			<-release
			return nil
		})))
	handler := app.routes()

	require.NoError(t, app.form.SetField("name", "ana"))
	require.NoError(t, app.form.SetField("email", "ana@gmail.com"))
	require.NoError(t, app.form.SetField("password", "secret"))
	for i := 0; i < 2; i++ {
		app.form.AddTech()
		require.NoError(t, app.form.SetField("techs."+string(rune('0'+i))+".title", "Go"))
		require.NoError(t, app.form.SetField("techs."+string(rune('0'+i))+".knowledge", "10"))
	}

	var wg sync.WaitGroup
	var first *httptest.ResponseRecorder
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = send(t, handler, http.MethodPost, "/v1/form/submit", "")
	}()

	<-entered
	second := send(t, handler, http.MethodPost, "/v1/form/submit", "")
	assert.Equal(t, http.StatusConflict, second.Code)

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, first.Code)
}

func TestUpdateFieldHandler_Errors(t *testing.T) {
	app := newTestApplication(t)
	handler := app.routes()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown field", `{"path":"avatar","value":"x"}`, http.StatusBadRequest},
		{"index out of range", `{"path":"techs.3.title","value":"Go"}`, http.StatusNotFound},
		{"malformed json", `{"path":`, http.StatusBadRequest},
		{"unknown json key", `{"path":"name","value":"x","extra":1}`, http.StatusBadRequest},
		{"multiple values", `{"path":"name","value":"x"}{}`, http.StatusBadRequest},
		{"empty body", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := send(t, handler, http.MethodPatch, "/v1/form/fields", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Contains(t, decode(t, rr), "error")
		})
	}
}

func TestRemoveTechHandler(t *testing.T) {
	app := newTestApplication(t)
	handler := app.routes()

	first := app.form.AddTech()
	app.form.AddTech()
	third := app.form.AddTech()

	rr := send(t, handler, http.MethodDelete, "/v1/form/techs/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tech successfully removed", decode(t, rr)["message"])

	techs := app.form.Values().Techs
	require.Len(t, techs, 2)
	assert.Equal(t, first, techs[0].ID)
	assert.Equal(t, third, techs[1].ID)

	rr = send(t, handler, http.MethodDelete, "/v1/form/techs/5", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = send(t, handler, http.MethodDelete, "/v1/form/techs/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid index parameter", decode(t, rr)["error"])
}

func TestValidateUserHandler(t *testing.T) {
	app := newTestApplication(t)
	handler := app.routes()

	t.Run("valid payload with numeric and text knowledge", func(t *testing.T) {
		rr := send(t, handler, http.MethodPost, "/v1/users/validate", `{
			"name": "joão silva",
			"email": "USER@GMAIL.COM",
			"password": "secret",
			"techs": [
				{"title": "Go", "knowledge": 50},
				{"title": "SQL", "knowledge": "100"}
			]
		}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		value := decode(t, rr)["data"].(map[string]any)
		assert.Equal(t, "João Silva", value["name"])
		assert.Equal(t, "user@gmail.com", value["email"])

		techs := value["techs"].([]any)
		assert.Equal(t, float64(100), techs[1].(map[string]any)["knowledge"])
	})

	t.Run("field errors are keyed by path", func(t *testing.T) {
		rr := send(t, handler, http.MethodPost, "/v1/users/validate", `{
			"name": "ana",
			"email": "ana@gmail.com",
			"password": "secret",
			"techs": [
				{"title": "", "knowledge": 0},
				{"title": "Go", "knowledge": "lots"}
			]
		}`)
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		assert.Equal(t, map[string]any{
			"techs.0.title":     data.EnglishMessages.TechTitleRequired,
			"techs.0.knowledge": data.EnglishMessages.KnowledgeRange,
			"techs.1.knowledge": data.EnglishMessages.KnowledgeInvalid,
		}, decode(t, rr)["error"])
	})

	t.Run("does not touch form state", func(t *testing.T) {
		assert.Equal(t, data.FormInput{Techs: []data.TechInput{}}, app.form.Values())
	})
}

func TestLocalizedMessages(t *testing.T) {
	app, err := newApplication(config{env: "test", locale: "pt-BR"}, jsonlog.Discard())
	require.NoError(t, err)
	handler := app.routes()

	rr := send(t, handler, http.MethodPost, "/v1/form/submit", "")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	errs := decode(t, rr)["error"].(map[string]any)
	assert.Equal(t, "O nome é obrigatório", errs["name"])
	assert.Equal(t, "Insira pelo menos 2 tecnologias", errs["techs"])

	rr = send(t, handler, http.MethodGet, "/v1/form/password-strength", "")
	assert.Equal(t, "Senha fraca", decode(t, rr)["data"].(map[string]any)["label"])
}

func TestRouting(t *testing.T) {
	app := newTestApplication(t)
	handler := app.routes()

	rr := send(t, handler, http.MethodGet, "/v1/form/submit", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "the GET method is not supported for this resource", decode(t, rr)["error"])

	rr = send(t, handler, http.MethodGet, "/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "the requested resource could not be found", decode(t, rr)["error"])
}
