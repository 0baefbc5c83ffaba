package queue

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/transport-ticketing/internal/model"
)

func TestWriteAuditLine(t *testing.T) {
	r := &model.Reservation{
		ID: "r1", TrajetID: "t1", Channel: model.ChannelCounter, SeatsGo: 2, SeatsReturn: 1,
		Amount: 15000, CompanyName: "Sahel Express", AgencyName: "Gare", ReferenceCode: "SE-G-GUI-0007",
	}
	ev := NewReservationPaidEvent(r, time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC))
	var buf bytes.Buffer
	if err := writeAuditLine(&buf, ev); err != nil {
		t.Fatal(err)
	}
	want := `[2026-10-12T08:00:00Z] Reservation paid | reservation_id=r1 | code=SE-G-GUI-0007 | trip_id=t1 | company="Sahel Express" | agency="Gare" | channel=counter | seats=2+1 | amount=15000` + "\n"
	if buf.String() != want {
		t.Fatalf("line =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestAppendAudit(t *testing.T) {
	old := AuditLogPath
	AuditLogPath = filepath.Join(t.TempDir(), "logs", "reservations.log")
	defer func() { AuditLogPath = old }()

	if err := appendAudit([]byte(`{"reservation_id":"r9","channel":"online"}`)); err != nil {
		t.Fatalf("appendAudit: %v", err)
	}
	if err := appendAudit([]byte(`{"channel":"online"}`)); err == nil {
		t.Fatal("event without id accepted")
	}
	if err := appendAudit([]byte(`not json`)); err == nil {
		t.Fatal("malformed body accepted")
	}
	b, err := os.ReadFile(AuditLogPath)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(b), "\n"); n != 1 || !strings.Contains(string(b), "reservation_id=r9") {
		t.Fatalf("log = %q", b)
	}
}
