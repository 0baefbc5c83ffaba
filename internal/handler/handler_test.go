package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/transport-ticketing/internal/booking"
	"github.com/iliyamo/transport-ticketing/internal/handler"
	"github.com/iliyamo/transport-ticketing/internal/inventory"
	"github.com/iliyamo/transport-ticketing/internal/middleware"
	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/repository/memstore"
	"github.com/iliyamo/transport-ticketing/internal/router"
	"github.com/iliyamo/transport-ticketing/internal/schedule"
	"github.com/iliyamo/transport-ticketing/internal/sequence"
	"github.com/iliyamo/transport-ticketing/internal/utils"
)

const secret = "handler-test-secret"

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

type server struct {
	e  *echo.Echo
	st *memstore.Store
}

func newServer(t *testing.T) *server {
	t.Helper()
	st := memstore.New()
	st.PutCompany(model.Company{ID: "c1", Name: "Sahel Express"})
	st.PutCompany(model.Company{ID: "c2", Name: "Bani Transport"})
	st.PutAgency(model.Agency{ID: "a1", CompanyID: "c1", Name: "Gare Routiere", Phone: "+22320000000"})

	quiet := log.New("test")
	quiet.SetOutput(io.Discard)
	now := func() time.Time { return time.Date(2026, 10, 12, 6, 0, 0, 0, time.UTC) }

	calc := inventory.New(70)
	seq := sequence.New(st, nil, quiet)
	writer := booking.NewWriter(st, booking.Config{Calculator: calc, Codes: seq, Logger: quiet, Now: now})
	expander := schedule.NewExpander(st, schedule.ExpanderConfig{HorizonDays: 8, Location: time.UTC, Now: now, Logger: quiet})

	e := echo.New()
	e.Logger.SetOutput(io.Discard)
	trips := handler.NewTripHandler(inventory.NewService(calc, st))
	res := handler.NewReservationHandler(st, writer, seq)
	tmpl := handler.NewTemplateHandler(st, schedule.NewService(st, expander))
	router.RegisterRoutes(e)
	router.RegisterPublic(e, trips, res, passThrough)
	router.RegisterStaff(e, res, secret, passThrough)
	router.RegisterAdmin(e, tmpl, secret, passThrough)
	return &server{e: e, st: st}
}

func bearer(t *testing.T, role, company, agency string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, "u1", role, company, agency, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok.Token
}

func (s *server) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (s *server) addTrip(t *testing.T, capacity int) {
	t.Helper()
	trip := &model.TripInstance{
		ID: "t1", CompanyID: "c1", CompanyName: "Sahel Express", AgencyID: "a1",
		Departure: "Bamako", Arrival: "Kayes", Date: "2026-10-12", Time: "08:00",
		UnitPrice: 5000, Capacity: capacity,
	}
	if err := s.st.CreateTrip(context.Background(), trip); err != nil {
		t.Fatal(err)
	}
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec, _ := s.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestTemplateLifecycle(t *testing.T) {
	s := newServer(t)
	admin := bearer(t, middleware.RoleAdmin, "c1", "")
	body := `{"agency_id":"a1","departure":"Bamako","arrival":"Segou","unit_price":5000,"capacity":30,"horaires":{"monday":["08:00","14:00"]}}`

	rec, out := s.do(t, http.MethodPost, "/v1/templates", admin, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	tmpl := out["template"].(map[string]any)
	id := tmpl["id"].(string)
	if tmpl["company_id"] != "c1" {
		t.Fatalf("company defaulted to %v", tmpl["company_id"])
	}
	if created := out["expansion"].(map[string]any)["created"].([]any); len(created) != 4 {
		t.Fatalf("created = %d instances, want 4", len(created))
	}

	if rec, _ := s.do(t, http.MethodGet, "/v1/templates/"+id, admin, ""); rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}
	other := bearer(t, middleware.RoleAdmin, "c2", "")
	if rec, _ := s.do(t, http.MethodGet, "/v1/templates/"+id, other, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("other company get = %d, want 404", rec.Code)
	}
	agent := bearer(t, middleware.RoleAgent, "c1", "a1")
	if rec, _ := s.do(t, http.MethodGet, "/v1/templates/"+id, agent, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("agent get = %d, want 403", rec.Code)
	}

	upd := strings.Replace(body, `"unit_price":5000`, `"unit_price":7000`, 1)
	rec, out = s.do(t, http.MethodPut, "/v1/templates/"+id, admin, upd)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d %s", rec.Code, rec.Body.String())
	}
	if updated := out["expansion"].(map[string]any)["updated"].([]any); len(updated) != 4 {
		t.Fatalf("updated = %d instances, want 4", len(updated))
	}

	rec, out = s.do(t, http.MethodPost, "/v1/templates/"+id+"/expand", admin, "")
	if rec.Code != http.StatusOK || out["unchanged"].(float64) != 4 {
		t.Fatalf("expand = %d %v", rec.Code, out)
	}

	rec, out = s.do(t, http.MethodGet, "/v1/trips?departure=Bamako&arrival=Segou&date=2026-10-12", "", "")
	if rec.Code != http.StatusOK || out["total"].(float64) != 2 {
		t.Fatalf("search = %d %v", rec.Code, out)
	}
}

func TestTemplateValidation(t *testing.T) {
	s := newServer(t)
	admin := bearer(t, middleware.RoleAdmin, "c1", "")
	rec, out := s.do(t, http.MethodPost, "/v1/templates", admin,
		`{"agency_id":"a1","departure":"Bamako","arrival":"Segou","unit_price":0,"capacity":30,"horaires":{"someday":["08:00"]}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	fields := out["fields"].(map[string]any)
	if _, ok := fields["unit_price"]; !ok {
		t.Fatalf("fields = %v", fields)
	}
	if rec, _ := s.do(t, http.MethodPost, "/v1/templates", admin, `{"company_id":"c2"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign company create = %d, want 403", rec.Code)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	s := newServer(t)
	for _, q := range []string{"", "?departure=Bamako&arrival=Kayes", "?departure=Bamako&arrival=Kayes&date=12/10/2026"} {
		if rec, _ := s.do(t, http.MethodGet, "/v1/trips"+q, "", ""); rec.Code != http.StatusBadRequest {
			t.Errorf("GET /v1/trips%s = %d, want 400", q, rec.Code)
		}
	}
}

func TestCounterSaleAndCapacity(t *testing.T) {
	s := newServer(t)
	s.addTrip(t, 10)
	agent := bearer(t, middleware.RoleAgent, "c1", "a1")

	for _, seats := range []string{"4", "5"} {
		rec, out := s.do(t, http.MethodPost, "/v1/counter/reservations", agent, `{"trajet_id":"t1","seats_go":`+seats+`}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("sale = %d %s", rec.Code, rec.Body.String())
		}
		if out["status"] != "paid" || !strings.HasPrefix(out["reference_code"].(string), "SE-G-GUI-000") {
			t.Fatalf("sale = %v", out)
		}
	}

	rec, out := s.do(t, http.MethodPost, "/v1/counter/reservations", agent, `{"trajet_id":"t1","seats_go":2}`)
	if rec.Code != http.StatusConflict || out["remaining"].(float64) != 1 {
		t.Fatalf("overbooking = %d %v", rec.Code, out)
	}

	rec, out = s.do(t, http.MethodGet, "/v1/trips/t1/availability", "", "")
	if rec.Code != http.StatusOK || out["remaining_seats"].(float64) != 1 {
		t.Fatalf("availability = %d %v", rec.Code, out)
	}

	if rec, _ := s.do(t, http.MethodPost, "/v1/counter/reservations", "", `{"trajet_id":"t1","seats_go":1}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous counter sale = %d, want 401", rec.Code)
	}
	noAgency := bearer(t, middleware.RoleAdmin, "c1", "")
	if rec, _ := s.do(t, http.MethodPost, "/v1/counter/reservations", noAgency, `{"trajet_id":"t1","seats_go":1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("sale without agency = %d, want 400", rec.Code)
	}
}

func TestOnlineBookingFlow(t *testing.T) {
	s := newServer(t)
	s.addTrip(t, 10)
	rec, out := s.do(t, http.MethodPost, "/v1/reservations", "", `{"trajet_id":"t1","seats_go":2,"channel":"counter","company_id":"c2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("book = %d %s", rec.Code, rec.Body.String())
	}
	if out["status"] != "pending" || out["channel"] != "online" || out["company_id"] != "c1" {
		t.Fatalf("online reservation = %v", out)
	}
	id := out["id"].(string)

	if rec, _ := s.do(t, http.MethodGet, "/v1/reservations/"+id, "", ""); rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodGet, "/v1/reservations/missing", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get missing = %d", rec.Code)
	}

	agent := bearer(t, middleware.RoleAgent, "c1", "a1")
	if rec, _ := s.do(t, http.MethodPost, "/v1/reservations/"+id+"/code", agent, ""); rec.Code != http.StatusConflict {
		t.Fatalf("code for pending reservation = %d, want 409", rec.Code)
	}
	rec, out = s.do(t, http.MethodPatch, "/v1/reservations/"+id+"/status", agent, `{"status":"paid"}`)
	if rec.Code != http.StatusOK || out["reference_code"] != "SE-G-WEB-0001" {
		t.Fatalf("pay = %d %v", rec.Code, out)
	}
	rec, out = s.do(t, http.MethodPost, "/v1/reservations/"+id+"/code", agent, "")
	if rec.Code != http.StatusOK || out["reference_code"] != "SE-G-WEB-0001" {
		t.Fatalf("code = %d %v", rec.Code, out)
	}
	if rec, _ := s.do(t, http.MethodPatch, "/v1/reservations/"+id+"/status", agent, `{"status":"refused"}`); rec.Code != http.StatusConflict {
		t.Fatalf("refuse paid = %d, want 409", rec.Code)
	}

	foreign := bearer(t, middleware.RoleAgent, "c2", "a9")
	if rec, _ := s.do(t, http.MethodPatch, "/v1/reservations/"+id+"/status", foreign, `{"status":"cancelled"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign agent = %d, want 404", rec.Code)
	}
}

func TestOnlineBookingRejects(t *testing.T) {
	s := newServer(t)
	s.addTrip(t, 1)
	cases := []struct {
		body string
		code int
	}{
		{`{"seats_go":1}`, http.StatusBadRequest},
		{`{"trajet_id":"t1","seats_go":0}`, http.StatusBadRequest},
		{`{"trajet_id":"nope","seats_go":1}`, http.StatusNotFound},
		{`{"trajet_id":"t1","seats_go":1,"seats_return":1}`, http.StatusConflict},
		{`not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if rec, _ := s.do(t, http.MethodPost, "/v1/reservations", "", tc.body); rec.Code != tc.code {
			t.Errorf("POST %s = %d, want %d", tc.body, rec.Code, tc.code)
		}
	}
}
