package tryonsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pkg/errors"

	"github.com/GraduateProjectPTIT/lms-backend/core"
)

// service talks to the AI try-on backend over multipart HTTP.
type service struct {
	baseURL string
	client  *http.Client
	logger  core.Logger
}

var _ core.TryOnService = (*service)(nil)

func NewService(logger core.Logger) core.TryOnService {
	return &service{
		baseURL: core.Conf.TryOn.BaseURL,
		client:  &http.Client{Timeout: core.Conf.TryOn.Timeout},
		logger:  logger,
	}
}

func (svc service) ConsultStyles(ctx context.Context, userRequest string) ([]core.StyleOption, error) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	if err := w.WriteField("user_request", userRequest); err != nil {
		return nil, errors.Wrap(err, "writing user_request field")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "closing multipart body")
	}

	var res struct {
		Styles []core.StyleOption `json:"styles"`
	}
	if err := svc.post(ctx, "/vto/consult-styles", w.FormDataContentType(), body, &res); err != nil {
		return nil, err
	}
	return res.Styles, nil
}

func (svc service) GenerateMakeup(ctx context.Context, face io.Reader, filename string, overrides core.StyleOverrides) (core.MakeupResult, error) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	fw, err := w.CreateFormFile("face_image", filename)
	if err != nil {
		return core.MakeupResult{}, errors.Wrap(err, "creating face_image part")
	}
	if _, err = io.Copy(fw, face); err != nil {
		return core.MakeupResult{}, errors.Wrap(err, "copying face image")
	}

	fields := map[string]string{
		"style_id":  overrides.StyleID,
		"lipstick":  overrides.Lipstick,
		"eyeshadow": overrides.Eyeshadow,
		"blush":     overrides.Blush,
		"eyeliner":  overrides.Eyeliner,
	}
	for name, val := range fields {
		if val == "" {
			continue
		}
		if err = w.WriteField(name, val); err != nil {
			return core.MakeupResult{}, errors.Wrap(err, "writing "+name+" field")
		}
	}
	if err = w.Close(); err != nil {
		return core.MakeupResult{}, errors.Wrap(err, "closing multipart body")
	}

	var res core.MakeupResult
	if err = svc.post(ctx, "/vto/generate-makeup", w.FormDataContentType(), body, &res); err != nil {
		return core.MakeupResult{}, err
	}
	return res, nil
}

func (svc service) post(ctx context.Context, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "building try-on request")
	}
	req.Header.Set("Content-Type", contentType)

	res, err := svc.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling try-on service")
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		// the AI service reports user-level failures as {message: ...}
		var fail struct {
			Message string `json:"message"`
		}
		if err = json.NewDecoder(res.Body).Decode(&fail); err != nil || fail.Message == "" {
			svc.logger.Error("try-on service error", "status", res.StatusCode)
			return errors.Errorf("try-on service returned status %d", res.StatusCode)
		}
		return core.NewValidationError(nil, core.FieldError{Field: "face_image", Error: fail.Message})
	}

	if err = json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding try-on response")
	}
	return nil
}
