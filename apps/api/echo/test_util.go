package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/notification"
	"github.com/trezcool/elimu/core/profile"
	"github.com/trezcool/elimu/core/registration"
	"github.com/trezcool/elimu/core/user"
	assistsvc "github.com/trezcool/elimu/services/assist"
	emailsvc "github.com/trezcool/elimu/services/email"
	"github.com/trezcool/elimu/storage/cache"
	inmemdb "github.com/trezcool/elimu/storage/database/inmem"
	testutil "github.com/trezcool/elimu/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

// fixture bundles the wired test server and the handles tests poke at
// directly.
type fixture struct {
	server    *Server
	conf      *core.Config
	logger    *testutil.Logger
	usrRepo   user.Repository
	profRepo  profile.Repository
	regRepo   registration.Repository
	notifRepo notification.Repository
	usrSvc    user.ServiceInterface
	regSvc    registration.ServiceInterface
	notifSvc  notification.ServiceInterface
	resolver  *registration.Resolver
}

func setup(t *testing.T, assistSvc ...assistsvc.ServiceInterface) *fixture {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	conf := testutil.NewConfig()
	logger := new(testutil.Logger)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	usrRepo := inmemdb.NewUserRepository(db)
	profRepo := inmemdb.NewProfileRepository(db)
	regRepo := inmemdb.NewRegistrationRepository(db)
	notifRepo := inmemdb.NewNotificationRepository(db)
	auditRepo := inmemdb.NewEmailAuditRepository(db)

	usrSvc := user.NewService(usrRepo, mailSvc, auditRepo, conf)
	profSvc := profile.NewService(profRepo)
	notifSvc := notification.NewService(notifRepo, cache.NewMemory(), logger)
	regSvc := registration.NewService(regRepo, usrSvc, profSvc, notifSvc, mailSvc, auditRepo, logger)
	resolver := registration.NewResolver(regRepo, profSvc, logger)

	var assist assistsvc.ServiceInterface
	if len(assistSvc) > 0 {
		assist = assistSvc[0]
	} else {
		assist = assistsvc.NewClient(conf, logger)
	}

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)

	server := NewServer(ServerDeps{
		Conf:            conf,
		Logger:          logger,
		UserSvc:         usrSvc,
		ProfileSvc:      profSvc,
		RegistrationSvc: regSvc,
		NotificationSvc: notifSvc,
		AssistSvc:       assist,
		MailSvc:         mailSvc,
		EmailAuditRepo:  auditRepo,
		Resolver:        resolver,
		Validate:        validate,
		Translator:      translator,
		DisableReqLogs:  true,
	})

	return &fixture{
		server:    server,
		conf:      conf,
		logger:    logger,
		usrRepo:   usrRepo,
		profRepo:  profRepo,
		regRepo:   regRepo,
		notifRepo: notifRepo,
		usrSvc:    usrSvc,
		regSvc:    regSvc,
		notifSvc:  notifSvc,
		resolver:  resolver,
	}
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (fix *fixture) getToken(t *testing.T, usr user.User) string {
	t.Helper()

	snap := fix.resolver.FetchUserData(context.Background(), usr.ID)
	claims := GetUserClaims(fix.conf, usr, snap)
	token, err := GenerateToken(fix.conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// createApprovedUser provisions an active user with an approved registration
// and role assignment.
func (fix *fixture) createApprovedUser(t *testing.T, email string, role user.Role) user.User {
	t.Helper()

	usr := testutil.CreateUser(t, fix.usrRepo, email, "Str0ng&Secret", true)
	testutil.CreateProfile(t, fix.profRepo, usr.ID, "Jane", "Doe")
	testutil.CreateRegistration(t, fix.regRepo, usr.ID, role, registration.StatusApproved)
	return usr
}

// createPendingUser provisions an inactive user whose registration awaits
// review.
func (fix *fixture) createPendingUser(t *testing.T, email string, requested user.Role) (user.User, registration.Registration) {
	t.Helper()

	usr := testutil.CreateUser(t, fix.usrRepo, email, "Str0ng&Secret", false)
	testutil.CreateProfile(t, fix.profRepo, usr.ID, "John", "Doe")
	reg := testutil.CreateRegistration(t, fix.regRepo, usr.ID, requested, registration.StatusPending)
	return usr, reg
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()

	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
