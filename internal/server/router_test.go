package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"office-portal/internal/appcontext"
	"office-portal/internal/auth"
	"office-portal/internal/config"
	"office-portal/internal/dashboard"
	"office-portal/internal/database/dbtest"
	"office-portal/internal/models"
	"office-portal/internal/server"
	"office-portal/internal/storage"
	"office-portal/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testEnv struct {
	t   *testing.T
	db  *gorm.DB
	app *appcontext.Context
	srv *httptest.Server
}

func newEnv(t *testing.T, limiter auth.Limiter) *testEnv {
	t.Helper()
	db := dbtest.Open(t)
	uploads, err := storage.NewUploads(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := zap.NewNop()

	app := &appcontext.Context{
		Config: &config.Config{
			SessionSecret: "test-secret",
			SessionMaxAge: 3600,
			TemplatesGlob: filepath.Join(t.TempDir(), "*.html"),
		},
		DB:        db,
		Logger:    logger,
		Auth:      auth.NewAuthenticator(db, limiter),
		Uploads:   uploads,
		Workflow:  workflow.NewService(db, nil, logger),
		Dashboard: dashboard.New(db),
	}
	srv := httptest.NewServer(server.NewRouter(app))
	t.Cleanup(srv.Close)
	return &testEnv{t: t, db: db, app: app, srv: srv}
}

func (e *testEnv) user(username, password string, role models.UserRole) models.User {
	e.t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		e.t.Fatal(err)
	}
	u := models.User{Username: username, PasswordHash: hash, Role: role}
	if err := e.db.Create(&u).Error; err != nil {
		e.t.Fatal(err)
	}
	return u
}

// client эмулирует браузер с cookie, который не следует за редиректами.
func (e *testEnv) client() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) login(username, password string) *http.Client {
	e.t.Helper()
	c := e.client()
	resp := e.postForm(c, "/login", url.Values{"username": {username}, "password": {password}})
	if resp.StatusCode != http.StatusFound {
		e.t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
	return c
}

func (e *testEnv) get(c *http.Client, path string) *http.Response {
	e.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	req.Header.Set("Accept", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		e.t.Fatal(err)
	}
	e.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) postForm(c *http.Client, path string, form url.Values) *http.Response {
	e.t.Helper()
	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.Do(req)
	if err != nil {
		e.t.Fatal(err)
	}
	e.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

type upload struct {
	filename string
	content  string
}

func (e *testEnv) postMultipart(c *http.Client, path string, fields url.Values, files map[string]upload) *http.Response {
	e.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, vs := range fields {
		for _, v := range vs {
			_ = w.WriteField(k, v)
		}
	}
	for field, f := range files {
		fw, err := w.CreateFormFile(field, f.filename)
		if err != nil {
			e.t.Fatal(err)
		}
		_, _ = fw.Write([]byte(f.content))
	}
	if err := w.Close(); err != nil {
		e.t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := c.Do(req)
	if err != nil {
		e.t.Fatal(err)
	}
	e.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) readUpload(name string) string {
	e.t.Helper()
	data, err := os.ReadFile(e.app.Uploads.Path(name))
	if err != nil {
		e.t.Fatalf("read upload %q: %v", name, err)
	}
	return string(data)
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
}

type vehicleList struct {
	Items []struct {
		ID          uint
		PlateNumber *string
		ImagePath   string
	} `json:"items"`
}

func TestLogin(t *testing.T) {
	e := newEnv(t, nil)
	e.user("manager", "manager123", models.RoleManager)

	c := e.login("manager", "manager123")
	resp := e.get(c, "/")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/manager/dashboard" {
		t.Fatalf("GET / = %d -> %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	if resp := e.get(c, "/manager/dashboard"); resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status = %d", resp.StatusCode)
	}

	bad := e.client()
	resp = e.postForm(bad, "/login", url.Values{"username": {"manager"}, "password": {"nope"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad login status = %d", resp.StatusCode)
	}
	if resp := e.get(bad, "/vehicles"); resp.StatusCode != http.StatusFound {
		t.Fatalf("failed login must not establish a session, got %d", resp.StatusCode)
	}

	if resp := e.get(c, "/logout"); resp.StatusCode != http.StatusFound {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	if resp := e.get(c, "/vehicles"); resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("after logout: %d -> %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestLoginLockout(t *testing.T) {
	e := newEnv(t, auth.NewMemoryLimiter(2, time.Minute))
	e.user("admin", "admin123", models.RoleAdmin)

	c := e.client()
	for i := 0; i < 2; i++ {
		e.postForm(c, "/login", url.Values{"username": {"admin"}, "password": {"x"}})
	}
	resp := e.postForm(c, "/login", url.Values{"username": {"admin"}, "password": {"admin123"}})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
}

func TestAccessControl(t *testing.T) {
	e := newEnv(t, nil)
	e.user("employee", "employee123", models.RoleEmployee)

	anon := e.client()
	for _, path := range []string{"/vehicles", "/admin/dashboard", "/ijro", "/hr/users", "/uploads/x.jpg"} {
		resp := e.get(anon, path)
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
			t.Errorf("anonymous %s: %d -> %s", path, resp.StatusCode, resp.Header.Get("Location"))
		}
	}

	emp := e.login("employee", "employee123")
	for _, path := range []string{"/vehicles", "/organizations", "/admin/dashboard", "/manager/dashboard", "/hr/users", "/tasks/create"} {
		if resp := e.get(emp, path); resp.StatusCode != http.StatusForbidden {
			t.Errorf("employee %s: status %d, want 403", path, resp.StatusCode)
		}
	}
	for _, path := range []string{"/employee/dashboard", "/ijro", "/tasks"} {
		if resp := e.get(emp, path); resp.StatusCode != http.StatusOK {
			t.Errorf("employee %s: status %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestVehicleLifecycle(t *testing.T) {
	e := newEnv(t, nil)
	e.user("manager", "manager123", models.RoleManager)
	c := e.login("manager", "manager123")

	form := url.Values{
		"plate_number":       {"01A123BC"},
		"model":              {"Cobalt"},
		"driver_full_name":   {"Aliyev Vali"},
		"monthly_fuel_limit": {"inf"},
		"organization_id":    {""},
	}
	if resp := e.postForm(c, "/vehicles/create", form); resp.StatusCode != http.StatusFound {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if resp := e.postForm(c, "/vehicles/create", form); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate plate status = %d, want 400", resp.StatusCode)
	}

	var list vehicleList
	decode(t, e.get(c, "/vehicles"), &list)
	matches := 0
	for _, v := range list.Items {
		if v.PlateNumber != nil && *v.PlateNumber == "01A123BC" {
			matches++
		}
	}
	if matches != 1 || len(list.Items) != 1 {
		t.Fatalf("vehicles = %+v", list.Items)
	}

	var stored models.Vehicle
	e.db.First(&stored, list.Items[0].ID)
	if stored.MonthlyFuelLimit != 0 || stored.OrganizationID != nil {
		t.Errorf("defaults not applied: %+v", stored)
	}

	path := "/vehicles/" + itoa(list.Items[0].ID)
	if resp := e.get(c, path); resp.StatusCode != http.StatusOK {
		t.Fatalf("detail status = %d", resp.StatusCode)
	}
	if resp := e.postForm(c, path+"/delete", nil); resp.StatusCode != http.StatusFound {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	decode(t, e.get(c, "/vehicles"), &list)
	if len(list.Items) != 0 {
		t.Fatalf("vehicle still listed after delete: %+v", list.Items)
	}
	if resp := e.postForm(c, path+"/delete", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("repeated delete status = %d, want 404", resp.StatusCode)
	}
	if resp := e.get(c, path); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("detail after delete = %d, want 404", resp.StatusCode)
	}
}

func TestVehicleImageUpload(t *testing.T) {
	e := newEnv(t, nil)
	e.user("admin", "admin123", models.RoleAdmin)
	c := e.login("admin", "admin123")

	resp := e.postMultipart(c, "/vehicles/create",
		url.Values{"plate_number": {"10B777AA"}},
		map[string]upload{"image": {"../My Car.jpg", "fake jpeg"}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var v models.Vehicle
	if err := e.db.First(&v).Error; err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(v.ImagePath, "_My_Car.jpg") {
		t.Fatalf("ImagePath = %q", v.ImagePath)
	}
	if got := e.readUpload(v.ImagePath); got != "fake jpeg" {
		t.Fatalf("stored file = %q", got)
	}

	if resp := e.get(c, "/uploads/"+v.ImagePath); resp.StatusCode != http.StatusOK {
		t.Errorf("GET upload status = %d", resp.StatusCode)
	}
}

func TestIjroMarkDone(t *testing.T) {
	e := newEnv(t, nil)
	assignee := e.user("ali", "secret1", models.RoleEmployee)
	e.user("vali", "secret2", models.RoleEmployee)

	item := models.IjroTask{Title: "Oylik hisobot", Status: models.TaskNew, AssignedToID: &assignee.ID}
	if err := e.db.Create(&item).Error; err != nil {
		t.Fatal(err)
	}
	status := func() models.TaskStatus {
		var got models.IjroTask
		e.db.First(&got, item.ID)
		return got.Status
	}

	other := e.login("vali", "secret2")
	if resp := e.postForm(other, "/ijro/"+itoa(item.ID)+"/done", nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("other employee status = %d, want 403", resp.StatusCode)
	}
	if st := status(); st != models.TaskNew {
		t.Fatalf("status = %s after forbidden attempt", st)
	}

	owner := e.login("ali", "secret1")
	if resp := e.postForm(owner, "/ijro/done/"+itoa(item.ID), nil); resp.StatusCode != http.StatusFound {
		t.Fatalf("assignee status = %d", resp.StatusCode)
	}
	if st := status(); st != models.TaskDone {
		t.Fatalf("status = %s, want done", st)
	}

	if resp := e.postForm(owner, "/ijro/9999/done", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing ijro status = %d, want 404", resp.StatusCode)
	}
}

func TestIjroDateFilter(t *testing.T) {
	e := newEnv(t, nil)
	e.user("manager", "manager123", models.RoleManager)
	c := e.login("manager", "manager123")

	for _, f := range []url.Values{
		{"title": {"A"}, "date": {"2024-05-01"}},
		{"title": {"B"}, "date": {"2024-05-02"}},
		{"title": {"C"}, "date": {"2024-05-01"}},
	} {
		if resp := e.postForm(c, "/ijro/create", f); resp.StatusCode != http.StatusFound {
			t.Fatalf("create ijro = %d", resp.StatusCode)
		}
	}

	var list struct {
		Items []struct{ Title string } `json:"items"`
	}
	decode(t, e.get(c, "/ijro?date=2024-05-01"), &list)
	if len(list.Items) != 2 {
		t.Fatalf("filtered ijro = %+v", list.Items)
	}
	decode(t, e.get(c, "/ijro"), &list)
	if len(list.Items) != 3 {
		t.Fatalf("all ijro = %+v", list.Items)
	}
}

func TestTaskWorkflow(t *testing.T) {
	e := newEnv(t, nil)
	manager := e.user("manager", "manager123", models.RoleManager)
	ali := e.user("ali", "secret1", models.RoleEmployee)
	e.user("vali", "secret2", models.RoleEmployee)

	mc := e.login("manager", "manager123")
	resp := e.postForm(mc, "/tasks/create", url.Values{
		"title":          {"Printerni tuzatish"},
		"assigned_to_id": {itoa(ali.ID)},
		"status":         {"done"},
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("create task = %d", resp.StatusCode)
	}

	var task models.Task
	if err := e.db.First(&task).Error; err != nil {
		t.Fatal(err)
	}
	if task.Status != models.TaskNew || task.Priority != models.DefaultPriority {
		t.Errorf("new task status/priority = %s/%s", task.Status, task.Priority)
	}
	if task.CreatedByID == nil || *task.CreatedByID != manager.ID {
		t.Errorf("CreatedByID = %v", task.CreatedByID)
	}

	vc := e.login("vali", "secret2")
	var list struct {
		Items []struct{ ID uint } `json:"items"`
	}
	decode(t, e.get(vc, "/tasks"), &list)
	if len(list.Items) != 0 {
		t.Errorf("vali sees foreign tasks: %+v", list.Items)
	}
	if resp := e.get(vc, "/tasks/"+itoa(task.ID)); resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign task detail = %d", resp.StatusCode)
	}

	ac := e.login("ali", "secret1")
	decode(t, e.get(ac, "/tasks"), &list)
	if len(list.Items) != 1 {
		t.Errorf("ali tasks = %+v", list.Items)
	}

	// менеджер меняет статус правкой
	resp = e.postForm(mc, "/tasks/"+itoa(task.ID)+"/edit", url.Values{
		"title":          {"Printerni tuzatish"},
		"assigned_to_id": {itoa(ali.ID)},
		"status":         {"rejected"},
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("edit task = %d", resp.StatusCode)
	}
	e.db.First(&task, task.ID)
	if task.Status != models.TaskRejected {
		t.Errorf("status after edit = %s", task.Status)
	}
}

func TestAdminDashboardEmpty(t *testing.T) {
	e := newEnv(t, nil)
	e.user("admin", "admin123", models.RoleAdmin)
	c := e.login("admin", "admin123")

	var data struct {
		ContractSum float64 `json:"contract_sum"`
		UserCount   int64   `json:"user_count"`
		Series      []dashboard.DayEnergy `json:"solar_series"`
	}
	resp := e.get(c, "/admin/dashboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	decode(t, resp, &data)
	if data.ContractSum != 0 || data.UserCount != 1 || len(data.Series) != dashboard.SeriesDays {
		t.Errorf("dashboard = %+v", data)
	}
}

func TestCreateUser(t *testing.T) {
	e := newEnv(t, nil)
	e.user("admin", "admin123", models.RoleAdmin)
	e.user("manager", "manager123", models.RoleManager)

	mc := e.login("manager", "manager123")
	if resp := e.postForm(mc, "/hr/users/create", url.Values{"username": {"x"}}); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("manager create user = %d, want 403", resp.StatusCode)
	}

	ac := e.login("admin", "admin123")
	bad := e.postForm(ac, "/hr/users/create", url.Values{"username": {"newbie"}, "password": {"secret12"}, "role": {"root"}})
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid role = %d", bad.StatusCode)
	}
	resp := e.postForm(ac, "/hr/users/create", url.Values{
		"username":         {"newbie"},
		"password":         {"secret12"},
		"role":             {"employee"},
		"telegram_chat_id": {"12345"},
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("create user = %d", resp.StatusCode)
	}

	var u models.User
	if err := e.db.Where("username = ?", "newbie").First(&u).Error; err != nil {
		t.Fatal(err)
	}
	if u.PasswordHash == "secret12" || u.TelegramChatID == nil || *u.TelegramChatID != 12345 {
		t.Errorf("stored user = %+v", u)
	}
	e.login("newbie", "secret12")
}

func TestSolarReadingsAndOrgDetail(t *testing.T) {
	e := newEnv(t, nil)
	e.user("manager", "manager123", models.RoleManager)
	c := e.login("manager", "manager123")

	if resp := e.postForm(c, "/solar/create", url.Values{"name": {"Navoiy"}, "capacity_kw": {"-3"}}); resp.StatusCode != http.StatusFound {
		t.Fatalf("create site = %d", resp.StatusCode)
	}
	var site models.SolarSite
	e.db.First(&site)
	if site.CapacityKW != 0 {
		t.Errorf("negative capacity stored: %v", site.CapacityKW)
	}

	resp := e.postForm(c, "/solar/"+itoa(site.ID)+"/readings", url.Values{"energy_kwh": {"12.5"}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("add reading = %d", resp.StatusCode)
	}
	if resp := e.postForm(c, "/solar/999/readings", url.Values{"energy_kwh": {"1"}}); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("reading for missing site = %d", resp.StatusCode)
	}

	var detail struct {
		Readings []struct{ EnergyKWh float64 } `json:"readings"`
	}
	decode(t, e.get(c, "/solar/"+itoa(site.ID)), &detail)
	if len(detail.Readings) != 1 || detail.Readings[0].EnergyKWh != 12.5 {
		t.Errorf("readings = %+v", detail.Readings)
	}

	if resp := e.postForm(c, "/organizations/create", url.Values{"name": {""}}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("org without name = %d, want 400", resp.StatusCode)
	}
	if resp := e.get(c, "/organizations/abc"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed id = %d, want 400", resp.StatusCode)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
