package v1

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"spareparts/internal/infrastructure/mockapi"
	"spareparts/pkg/logger"
)

type testServer struct {
	t      *testing.T
	router http.Handler
}

func newTestServer(t *testing.T, opts mockapi.Options) *testServer {
	t.Helper()
	opts.BcryptCost = bcrypt.MinCost
	backend := mockapi.New(opts)
	require.NoError(t, backend.Seed())

	router := NewRouter(RouterConfig{
		Backend: backend,
		JWT:     mockapi.NewJWTService(mockapi.DefaultJWTConfig("test-secret")),
		Logger:  logger.Nop(),
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(username string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login/", "", map[string]string{"username": username, "password": username + "123"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var pair mockapi.TokenPair
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &pair))
	require.NotEmpty(s.t, pair.Access)
	return pair.Access
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t, mockapi.Options{})

	w := s.do(http.MethodPost, "/api/auth/login/", "", map[string]string{"username": "wang", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No active account found with the given credentials", decode(t, w)["detail"])

	token := s.login(mockapi.SeedOperator)

	w = s.do(http.MethodGet, "/api/auth/me/", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, "wang", me["username"])
	assert.Equal(t, "Wind Farm 1", me["site"])
	assert.Equal(t, true, me["can_edit_own_site"])

	w = s.do(http.MethodGet, "/api/auth/me/", s.login(mockapi.SeedAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	me = decode(t, w)
	assert.Nil(t, me["site"])
	assert.Nil(t, me["site_id"])

	w = s.do(http.MethodPost, "/api/auth/logout/", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Successfully logged out", decode(t, w)["message"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, mockapi.Options{})

	tests := []struct {
		name       string
		token      string
		wantDetail string
	}{
		{"missing", "", "Authentication credentials were not provided."},
		{"garbage", "not-a-jwt", "Given token not valid for any token type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodGet, "/api/sites/", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.wantDetail, decode(t, w)["detail"])
		})
	}
}

func TestSitesAndCategories(t *testing.T) {
	s := newTestServer(t, mockapi.Options{})
	token := s.login(mockapi.SeedAdmin)

	w := s.do(http.MethodGet, "/api/sites/", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sites []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sites))
	require.Len(t, sites, 2)
	assert.Equal(t, "SP02", sites[0]["code"])

	w = s.do(http.MethodGet, "/api/categories/", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 0, body["code"])
	assert.Len(t, body["data"], 3)

	w = s.do(http.MethodPost, "/api/categories/", token, map[string]string{"name": "Filters", "code": "FLT"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/categories/", token, map[string]string{"name": "Filters", "code": "FLT"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body = decode(t, w)
	assert.EqualValues(t, 1, body["code"])
	assert.Nil(t, body["data"])
}

func TestPartList(t *testing.T) {
	s := newTestServer(t, mockapi.Options{})

	w := s.do(http.MethodGet, "/api/spare-parts/?limit=4&page=2", s.login(mockapi.SeedAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.EqualValues(t, 6, data["total"])
	assert.EqualValues(t, 2, data["page"])
	assert.EqualValues(t, 4, data["limit"])
	assert.Len(t, data["items"], 2)

	w = s.do(http.MethodGet, "/api/spare-parts/", s.login(mockapi.SeedViewer), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decode(t, w)["data"].(map[string]any)
	assert.EqualValues(t, 2, data["total"])

	w = s.do(http.MethodGet, "/api/spare-parts/?status=retired", s.login(mockapi.SeedViewer), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartList_ResultsStyle(t *testing.T) {
	s := newTestServer(t, mockapi.Options{ResultsStyle: true})

	w := s.do(http.MethodGet, "/api/spare-parts/?limit=4", s.login(mockapi.SeedAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotContains(t, body, "code")
	assert.EqualValues(t, 6, body["count"])
	assert.Len(t, body["results"], 4)
	assert.Contains(t, body["next"], "page=2")
	assert.Nil(t, body["previous"])
}

func TestPartCRUD(t *testing.T) {
	s := newTestServer(t, mockapi.Options{})
	token := s.login(mockapi.SeedOperator)

	w := s.do(http.MethodPost, "/api/spare-parts/", token, map[string]any{"name": "Brake pad", "quantity": 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "UNKNOWN", created["model"])
	assert.Equal(t, "Wind Farm 1", created["stationName"])
	partPath := "/api/spare-parts/" + jsonID(created["id"]) + "/"

	w = s.do(http.MethodPatch, partPath, token, map[string]any{"location": "Rack Q"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rack Q", decode(t, w)["data"].(map[string]any)["location"])

	w = s.do(http.MethodDelete, partPath, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, partPath, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "spare part not found", decode(t, w)["detail"])
}

func TestPartCreate_Multipart(t *testing.T) {
	s := newTestServer(t, mockapi.Options{})
	token := s.login(mockapi.SeedOperator)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Anemometer"))
	require.NoError(t, mw.WriteField("alarmQty", "1"))
	fw, err := mw.CreateFormFile("image", "anemometer.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/spare-parts/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := s.send(req, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	part := decode(t, w)["data"].(map[string]any)
	assert.EqualValues(t, 1, part["alarmQty"])
	imageURL, _ := part["imageUrl"].(string)
	require.True(t, strings.HasPrefix(imageURL, mockapi.MediaPrefix), imageURL)

	w = s.send(httptest.NewRequest(http.MethodGet, imageURL, nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestViewerCannotWrite(t *testing.T) {
	s := newTestServer(t, mockapi.Options{})
	token := s.login(mockapi.SeedViewer)

	w := s.do(http.MethodPost, "/api/transactions/", token, map[string]any{"spare_part": 5, "transaction_type": "IN", "quantity": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You do not have permission to perform this action.", decode(t, w)["detail"])
}

func TestTransactions(t *testing.T) {
	s := newTestServer(t, mockapi.Options{})
	token := s.login(mockapi.SeedOperator)

	w := s.do(http.MethodPost, "/api/transactions/", token, map[string]any{"spare_part": 1, "transaction_type": "OUT", "quantity": 99})
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["code"])
	assert.Equal(t, "out of stock", body["msg"])

	w = s.do(http.MethodPost, "/api/transactions/", token, map[string]any{"spare_part": "1", "transaction_type": "in", "quantity": 2, "price": "12.50"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tx := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "IN", tx["transaction_type"])
	assert.Equal(t, "wang", tx["operator_name"])

	w = s.do(http.MethodGet, "/api/transactions/by_spare_part?spare_part_id=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "Main bearing", data["spare_part"].(map[string]any)["name"])
	assert.EqualValues(t, 5, data["spare_part"].(map[string]any)["current_quantity"])
	assert.EqualValues(t, 3, data["total"])

	w = s.do(http.MethodGet, "/api/transactions/by_spare_part/", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["code"])

	w = s.do(http.MethodGet, "/api/transactions/statistics/?spare_part_id=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["data"].(map[string]any)
	assert.EqualValues(t, 3, stats["total_transactions"])

	w = s.do(http.MethodGet, "/api/transactions/?transaction_type=OUT&limit=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decode(t, w)["data"].(map[string]any)
	assert.EqualValues(t, 4, data["total"])
	assert.Len(t, data["items"], 2)
}

func TestTraceHeadersEchoed(t *testing.T) {
	s := newTestServer(t, mockapi.Options{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := s.send(req, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func jsonID(v any) string {
	raw, _ := json.Marshal(v)
	return strings.Trim(string(raw), `"`)
}
