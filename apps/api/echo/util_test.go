package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/identity"
	"github.com/trezcool/alama/core/records"
	sessionsvc "github.com/trezcool/alama/services/session"
	"github.com/trezcool/alama/storage/database/inmem"
	"github.com/trezcool/alama/testutil"
)

type testEnv struct {
	app    *Server
	store  records.Store
	cache  *records.MemoryCache
	issuer *sessionsvc.Issuer
}

func setup(t *testing.T) testEnv {
	t.Helper()
	testutil.Clock(t, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC))

	conf := &core.Config{
		AppName:   "Alama",
		SecretKey: "secret",
		TestMode:  true,
		Server:    core.ServerConfig{TokenTTL: time.Hour, DisableReqLogs: true},
	}
	store := inmemdb.NewStore(inmemdb.Open())
	issuer := sessionsvc.NewIssuer(conf)
	cache := records.NewMemoryCache()
	app := NewServer(ServerDeps{
		Conf:    conf,
		Logger:  testutil.NopLogger{},
		Gateway: records.NewGateway(store, cache, testutil.NopLogger{}),
		Issuer:  issuer,
	})
	return testEnv{app: app, store: store, cache: cache, issuer: issuer}
}

func (e testEnv) token(t *testing.T, id identity.Identity) string {
	t.Helper()
	token, err := e.issuer.Issue(id)
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

type httpErr struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

var (
	errLoginRequired  = httpErr{Error: "authentication required", Redirect: "/login"}
	errTeacherOnly    = httpErr{Error: "permission denied", Redirect: "/student"}
	errStudentOnly    = httpErr{Error: "permission denied", Redirect: "/teacher"}
	errRecordNotFound = httpErr{Error: "not found"}
)

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, body io.Reader, contentType string) (*http.Request, *httptest.ResponseRecorder) {
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func (e testEnv) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, bytes.NewReader(tt.body), "application/json")
			e.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// call runs one request and decodes a successful response into v.
func (e testEnv) call(t *testing.T, method, path, token string, body []byte, v interface{}) {
	t.Helper()
	req, rec := newAuthRequest(method, path, token, bytes.NewReader(body), "application/json")
	e.app.ServeHTTP(rec, req)
	if rec.Code >= 300 {
		t.Fatalf("%s %s: code = %d, body = %s", method, path, rec.Code, rec.Body.String())
	}
	if v != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
			t.Fatalf("%s %s: decoding %s: %v", method, path, rec.Body.String(), err)
		}
	}
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
