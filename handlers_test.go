package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chinampa/assistant"
	"chinampa/geo"
	"chinampa/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func f64(v float64) *float64 { return &v }

type fakeReports struct {
	raw  models.RawReport
	err  error
	seen []models.Coordinate
}

func (f *fakeReports) Build(_ context.Context, c models.Coordinate) (models.RawReport, error) {
	f.seen = append(f.seen, c)
	return f.raw, f.err
}

type fakeAdvisor struct {
	err     error
	gotMsg  string
	gotRep  *models.RawReport
	answers []string
}

func (f *fakeAdvisor) Ask(_ context.Context, message string, r *models.RawReport) (string, error) {
	f.gotMsg, f.gotRep = message, r
	if f.err != nil {
		return "", f.err
	}
	return "respuesta: " + message, nil
}

func (f *fakeAdvisor) Recommend(_ context.Context, r models.RawReport) ([]string, error) {
	f.gotRep = &r
	return f.answers, f.err
}

type fakeGeocoder struct {
	place models.Place
	err   error
}

func (f fakeGeocoder) Reverse(context.Context, models.Coordinate) (models.Place, error) {
	return f.place, f.err
}

func fullReport() models.RawReport {
	return models.RawReport{
		WeatherData:               &models.WeatherData{AverageTemperature5Days: f64(25), TotalPrecipitation5Days: f64(60)},
		SoilMoistureData:          &models.SoilMoistureData{MeanSoilMoisture: f64(0.8)},
		NDVIData:                  &models.NDVIData{MeanNDVI: f64(0.6)},
		AverageEvapotranspiration: f64(3.2),
	}
}

func newTestApp(rep *fakeReports, adv *fakeAdvisor, gc geo.ReverseGeocoder) *App {
	return &App{
		cfg:      Config{CORSOrigins: []string{"*"}},
		logger:   zap.NewNop(),
		reports:  rep,
		advisor:  adv,
		geocoder: gc,
	}
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetReport(t *testing.T) {
	rep := &fakeReports{raw: fullReport()}
	h := newTestApp(rep, &fakeAdvisor{}, fakeGeocoder{}).routes()

	rec := do(t, h, http.MethodPost, "/get_report", `{"latitude":19.43,"longitude":-99.13}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var got models.RawReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 25.0, *got.WeatherData.AverageTemperature5Days)
	assert.Equal(t, []models.Coordinate{{Latitude: 19.43, Longitude: -99.13}}, rep.seen)
}

func TestGetReportRejectsBadInput(t *testing.T) {
	h := newTestApp(&fakeReports{}, &fakeAdvisor{}, fakeGeocoder{}).routes()

	rec := do(t, h, http.MethodPost, "/get_report", `{`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, "/get_report", `{"latitude":123,"longitude":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"detail"`)
}

func TestGetReportBuildErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		want int
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"canceled", context.Canceled, http.StatusInternalServerError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestApp(&fakeReports{err: tc.err}, &fakeAdvisor{}, fakeGeocoder{}).routes()
			rec := do(t, h, http.MethodPost, "/get_report", `{"latitude":19.43,"longitude":-99.13}`)
			assert.Equal(t, tc.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"detail"`)
		})
	}
}

func TestAskAI(t *testing.T) {
	adv := &fakeAdvisor{}
	h := newTestApp(&fakeReports{}, adv, fakeGeocoder{}).routes()

	rec := do(t, h, http.MethodPost, "/api/askAI", `{"message":"¿Cuándo siembro?","report":{"average_evapotranspiration":3.2}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.AskResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "respuesta: ¿Cuándo siembro?", got.Response)
	require.NotNil(t, adv.gotRep)
	assert.Equal(t, 3.2, *adv.gotRep.AverageEvapotranspiration)
}

func TestAskAIErrors(t *testing.T) {
	h := newTestApp(&fakeReports{}, &fakeAdvisor{}, fakeGeocoder{}).routes()
	rec := do(t, h, http.MethodPost, "/api/askAI", `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = newTestApp(&fakeReports{}, &fakeAdvisor{err: assistant.ErrNoModel}, fakeGeocoder{}).routes()
	rec = do(t, h, http.MethodPost, "/api/askAI", `{"message":"hola"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h = newTestApp(&fakeReports{}, &fakeAdvisor{err: errors.New("quota")}, fakeGeocoder{}).routes()
	rec = do(t, h, http.MethodPost, "/api/askAI", `{"message":"hola"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecommendations(t *testing.T) {
	adv := &fakeAdvisor{answers: []string{"uno", assistant.NoResponse}}
	h := newTestApp(&fakeReports{}, adv, fakeGeocoder{}).routes()

	rec := do(t, h, http.MethodPost, "/get_recommendations", `{"ndvi_data":{"mean_ndvi":3639,"retries":0}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"recommendations":["uno","No response due to error."]}`, rec.Body.String())
	assert.Equal(t, 3639.0, *adv.gotRep.NDVIData.MeanNDVI)
}

func TestReverseGeocode(t *testing.T) {
	place := models.Place{City: "Ciudad de México", State: "CDMX", Country: "México"}
	h := newTestApp(&fakeReports{}, &fakeAdvisor{}, fakeGeocoder{place: place}).routes()

	rec := do(t, h, http.MethodGet, "/api/geocode/reverse?lat=19.43&lon=-99.13", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"city":"Ciudad de México","state":"CDMX","country":"México","route":"/report/Ciudad%20de%20M%C3%A9xico/CDMX/M%C3%A9xico"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/geocode/reverse?lat=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReverseGeocodeFailure(t *testing.T) {
	gc := fakeGeocoder{err: &geo.Error{Kind: geo.GeocodeFailed, Err: errors.New("timeout")}}
	h := newTestApp(&fakeReports{}, &fakeAdvisor{}, gc).routes()

	rec := do(t, h, http.MethodGet, "/api/geocode/reverse?lat=19.43&lon=-99.13", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"detail":"No se pudo determinar la ciudad para esta ubicación."}`, rec.Body.String())
}

func TestReportPage(t *testing.T) {
	rep := &fakeReports{raw: fullReport()}
	h := newTestApp(rep, &fakeAdvisor{}, fakeGeocoder{}).routes()

	rec := do(t, h, http.MethodGet, "/report/Ciudad%20de%20M%C3%A9xico/CDMX/M%C3%A9xico?lat=19.43&lon=-99.13", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Title   string              `json:"title"`
		State   string              `json:"state"`
		Report  models.ReportModel  `json:"report"`
		Actions []models.ActionItem `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Reporte para CDMX, México", view.Title)
	assert.Equal(t, "success", view.State)
	assert.InDelta(t, 80.0, *view.Report.Humidity, 1e-9)
	assert.Len(t, view.Actions, 4)
	assert.NotContains(t, rec.Body.String(), `"missing"`)
}

func TestReportPagePartial(t *testing.T) {
	rep := &fakeReports{raw: models.RawReport{
		WeatherData:               &models.WeatherData{Error: "archive down"},
		SoilMoistureData:          &models.SoilMoistureData{Error: "quota"},
		NDVIData:                  &models.NDVIData{Retries: 3, Error: "No se encontró NDVI"},
		AverageEvapotranspiration: f64(3.2),
	}}
	h := newTestApp(rep, &fakeAdvisor{}, fakeGeocoder{}).routes()

	rec := do(t, h, http.MethodGet, "/report/Oaxaca/Oaxaca/M%C3%A9xico?lat=17.06&lon=-96.72", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		State   string   `json:"state"`
		Missing []string `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "success", view.State)
	assert.Equal(t, []string{"temperature", "precipitation", "humidity", "ndvi"}, view.Missing)
}

func TestReportPageNoData(t *testing.T) {
	rep := &fakeReports{raw: models.RawReport{WeatherData: &models.WeatherData{Error: "boom"}}}
	h := newTestApp(rep, &fakeAdvisor{}, fakeGeocoder{}).routes()

	rec := do(t, h, http.MethodGet, "/report/Oaxaca/Oaxaca/M%C3%A9xico?lat=17.06&lon=-96.72", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"error"`)
	assert.Contains(t, rec.Body.String(), "No hay datos disponibles para esta ubicación.")

	rec = do(t, h, http.MethodGet, "/report/Oaxaca/Oaxaca/M%C3%A9xico", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOpenAPIAndHealth(t *testing.T) {
	h := newTestApp(&fakeReports{}, &fakeAdvisor{}, fakeGeocoder{}).routes()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/openapi.yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		Paths map[string]any `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &doc))
	for _, p := range []string{"/get_report", "/get_recommendations", "/api/askAI", "/api/geocode/reverse", "/report/{city}/{state}/{country}"} {
		assert.Contains(t, doc.Paths, p)
	}
}
