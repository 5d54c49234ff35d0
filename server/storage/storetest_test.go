package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/an1noX/techpinoyv3-sub002/common/model"
)

// runStoreSuite exercises the Store contract. newStore must return an empty
// store for each call.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("PrinterLifecycle", func(t *testing.T) { testPrinterLifecycle(t, newStore(t)) })
	t.Run("PrinterValidation", func(t *testing.T) { testPrinterValidation(t, newStore(t)) })
	t.Run("PrinterFilters", func(t *testing.T) { testPrinterFilters(t, newStore(t)) })
	t.Run("ClientDeletion", func(t *testing.T) { testClientDeletion(t, newStore(t)) })
	t.Run("Departments", func(t *testing.T) { testDepartments(t, newStore(t)) })
	t.Run("Toners", func(t *testing.T) { testToners(t, newStore(t)) })
	t.Run("TransferLogs", func(t *testing.T) { testTransferLogs(t, newStore(t)) })
	t.Run("MaintenanceLogs", func(t *testing.T) { testMaintenanceLogs(t, newStore(t)) })
}

func mustClient(t *testing.T, s Store, id, name string) *model.Client {
	t.Helper()
	c := &model.Client{ID: id, Name: name}
	if err := s.CreateClient(context.Background(), c); err != nil {
		t.Fatalf("CreateClient(%s): %v", id, err)
	}
	return c
}

func mustPrinter(t *testing.T, s Store, p *model.Printer) *model.Printer {
	t.Helper()
	if p.Make == "" {
		p.Make = "Kyocera"
	}
	if p.Model == "" {
		p.Model = "ECOSYS M2540dn"
	}
	if p.Status == "" {
		p.Status = model.StatusAvailable
	}
	if p.OwnedBy == "" {
		p.OwnedBy = model.OwnedBySystem
	}
	if err := s.CreatePrinter(context.Background(), p); err != nil {
		t.Fatalf("CreatePrinter: %v", err)
	}
	return p
}

func testPrinterLifecycle(t *testing.T, s Store) {
	ctx := context.Background()

	p := mustPrinter(t, s, &model.Printer{Series: "ECOSYS", SerialNumber: "VCF1234", Location: "Lobby"})
	if p.ID == "" || p.CreatedAt.IsZero() {
		t.Fatalf("CreatePrinter did not assign id/timestamps: %+v", p)
	}

	got, err := s.GetPrinter(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPrinter: %v", err)
	}
	if got.SerialNumber != "VCF1234" || got.Status != model.StatusAvailable || got.OwnedBy != model.OwnedBySystem {
		t.Errorf("GetPrinter = %+v", got)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, p.CreatedAt)
	}

	if err := s.CreatePrinter(ctx, &model.Printer{ID: p.ID, Make: "x", Model: "y", Status: model.StatusAvailable, OwnedBy: model.OwnedBySystem}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("duplicate CreatePrinter error = %v, want ErrAlreadyExists", err)
	}

	got.Notes = "toner low"
	got.IsRental = true
	if err := s.UpdatePrinter(ctx, got); err != nil {
		t.Fatalf("UpdatePrinter: %v", err)
	}
	for _, status := range model.PrinterStatuses() {
		if err := s.UpdatePrinterStatus(ctx, p.ID, status); err != nil {
			t.Fatalf("UpdatePrinterStatus(%s): %v", status, err)
		}
	}
	got, _ = s.GetPrinter(ctx, p.ID)
	if got.Notes != "toner low" || !got.IsRental || got.Status != model.StatusDeployed {
		t.Errorf("after updates: %+v", got)
	}

	if err := s.UpdatePrinterStatus(ctx, p.ID, "retired"); !errors.Is(err, model.ErrInvalidEnumValue) {
		t.Errorf("UpdatePrinterStatus(retired) error = %v", err)
	}
	if err := s.UpdatePrinterStatus(ctx, "missing", model.StatusRented); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePrinterStatus(missing) error = %v", err)
	}

	if err := s.DeletePrinter(ctx, p.ID); err != nil {
		t.Fatalf("DeletePrinter: %v", err)
	}
	if _, err := s.GetPrinter(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPrinter after delete error = %v", err)
	}
	if err := s.DeletePrinter(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeletePrinter error = %v", err)
	}
}

func testPrinterValidation(t *testing.T, s Store) {
	ctx := context.Background()

	err := s.CreatePrinter(ctx, &model.Printer{Make: "HP", Model: "M404", Status: model.StatusAvailable, OwnedBy: model.OwnedByClient})
	if !errors.Is(err, model.ErrMissingClientReference) {
		t.Errorf("client-owned without client_id error = %v", err)
	}

	err = s.CreatePrinter(ctx, &model.Printer{Make: "HP", Model: "M404", Status: "broken", OwnedBy: model.OwnedBySystem})
	if !errors.Is(err, model.ErrInvalidEnumValue) {
		t.Errorf("bad status error = %v", err)
	}

	err = s.CreatePrinter(ctx, &model.Printer{Make: "HP", Model: "M404", Status: model.StatusAvailable, OwnedBy: model.OwnedByClient, ClientID: "ghost"})
	if !errors.Is(err, ErrClientNotFound) {
		t.Errorf("unknown client error = %v", err)
	}

	mustClient(t, s, "c-1", "Acme")
	p := mustPrinter(t, s, &model.Printer{OwnedBy: model.OwnedByClient, ClientID: "c-1"})
	p.ClientID = ""
	if err := s.UpdatePrinter(ctx, p); !errors.Is(err, model.ErrMissingClientReference) {
		t.Errorf("UpdatePrinter dropping client error = %v", err)
	}

	// System-owned printers may carry a renting client.
	mustPrinter(t, s, &model.Printer{OwnedBy: model.OwnedBySystem, ClientID: "c-1", Status: model.StatusRented})
}

func testPrinterFilters(t *testing.T, s Store) {
	ctx := context.Background()
	mustClient(t, s, "c-1", "Acme")
	mustClient(t, s, "c-2", "Globex")

	mustPrinter(t, s, &model.Printer{ID: "p-1", Status: model.StatusAvailable})
	mustPrinter(t, s, &model.Printer{ID: "p-2", Status: model.StatusRented, ClientID: "c-1"})
	mustPrinter(t, s, &model.Printer{ID: "p-3", Status: model.StatusRented, OwnedBy: model.OwnedByClient, ClientID: "c-2"})
	mustPrinter(t, s, &model.Printer{ID: "p-4", Status: model.StatusForRepair})

	tests := []struct {
		name   string
		filter model.PrinterFilter
		want   []string
	}{
		{"all", model.PrinterFilter{}, []string{"p-1", "p-2", "p-3", "p-4"}},
		{"status", model.PrinterFilter{Status: model.StatusRented}, []string{"p-2", "p-3"}},
		{"owned by client", model.PrinterFilter{OwnedBy: model.OwnedByClient}, []string{"p-3"}},
		{"client", model.PrinterFilter{ClientID: "c-1"}, []string{"p-2"}},
		{"limit", model.PrinterFilter{Limit: 2}, []string{"p-1", "p-2"}},
		{"no match", model.PrinterFilter{Status: model.StatusMaintenance}, []string{}},
	}
	for _, tt := range tests {
		got, err := s.ListPrinters(ctx, tt.filter)
		if err != nil {
			t.Fatalf("%s: ListPrinters: %v", tt.name, err)
		}
		ids := make([]string, len(got))
		for i, p := range got {
			ids[i] = p.ID
		}
		if len(ids) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, ids, tt.want)
			continue
		}
		for i := range ids {
			if ids[i] != tt.want[i] {
				t.Errorf("%s: got %v, want %v", tt.name, ids, tt.want)
				break
			}
		}
	}
}

func testClientDeletion(t *testing.T, s Store) {
	ctx := context.Background()
	mustClient(t, s, "c-1", "Acme")
	dept := &model.Department{ID: "d-1", Name: "Finance", ClientID: "c-1"}
	if err := s.CreateDepartment(ctx, dept); err != nil {
		t.Fatalf("CreateDepartment: %v", err)
	}
	p := mustPrinter(t, s, &model.Printer{OwnedBy: model.OwnedByClient, ClientID: "c-1"})

	if err := s.DeleteClient(ctx, "c-1"); !errors.Is(err, ErrClientInUse) {
		t.Fatalf("DeleteClient in use error = %v", err)
	}

	if err := s.DeletePrinter(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteClient(ctx, "c-1"); err != nil {
		t.Fatalf("DeleteClient: %v", err)
	}
	d, err := s.GetDepartment(ctx, "d-1")
	if err != nil {
		t.Fatalf("department should survive client deletion: %v", err)
	}
	if d.ClientID != "" {
		t.Errorf("department still points at deleted client: %+v", d)
	}
	if err := s.DeleteClient(ctx, "c-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteClient error = %v", err)
	}
}

func testDepartments(t *testing.T, s Store) {
	ctx := context.Background()
	mustClient(t, s, "c-1", "Acme")
	for _, d := range []*model.Department{
		{ID: "d-1", Name: "Finance", ClientID: "c-1"},
		{ID: "d-2", Name: "Admin", ClientID: "c-1"},
		{ID: "d-3", Name: "Warehouse"},
	} {
		if err := s.CreateDepartment(ctx, d); err != nil {
			t.Fatalf("CreateDepartment(%s): %v", d.ID, err)
		}
	}
	if err := s.CreateDepartment(ctx, &model.Department{Name: "Ghost", ClientID: "nope"}); !errors.Is(err, ErrClientNotFound) {
		t.Errorf("department for unknown client error = %v", err)
	}

	all, err := s.ListDepartments(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("ListDepartments(all) = %d, %v", len(all), err)
	}
	acme, _ := s.ListDepartments(ctx, "c-1")
	if len(acme) != 2 || acme[0].Name != "Admin" {
		t.Errorf("ListDepartments(c-1) = %+v", acme)
	}

	p := mustPrinter(t, s, &model.Printer{Department: "d-1"})
	if err := s.DeleteDepartment(ctx, "d-1"); err != nil {
		t.Fatalf("DeleteDepartment: %v", err)
	}
	got, _ := s.GetPrinter(ctx, p.ID)
	if got.Department != "" {
		t.Errorf("printer still in deleted department: %q", got.Department)
	}
	if err := s.CreatePrinter(ctx, &model.Printer{Make: "a", Model: "b", Status: model.StatusAvailable, OwnedBy: model.OwnedBySystem, Department: "d-1"}); !errors.Is(err, ErrDepartmentNotFound) {
		t.Errorf("printer in unknown department error = %v", err)
	}
}

func testToners(t *testing.T, s Store) {
	ctx := context.Background()

	toner := &model.TonerType{
		ID: "tk-5240k", Model: "TK-5240K", Brand: "Kyocera", Color: model.ColorBlack, PageYield: 4000,
		CompatiblePrinters: []string{"ECOSYS P5026cdn", "ECOSYS M5526cdw"},
	}
	if err := s.UpsertTonerType(ctx, toner); err != nil {
		t.Fatalf("UpsertTonerType: %v", err)
	}
	cyan := &model.TonerType{
		ID: "tk-5240c", Model: "TK-5240C", Brand: "Kyocera", Color: model.ColorCyan,
		CompatiblePrinters: []string{"ECOSYS P5026cdn"},
	}
	if err := s.UpsertTonerType(ctx, cyan); err != nil {
		t.Fatalf("UpsertTonerType: %v", err)
	}

	got, err := s.GetTonerType(ctx, "tk-5240k")
	if err != nil {
		t.Fatalf("GetTonerType: %v", err)
	}
	if got.PageYield != 4000 || len(got.CompatiblePrinters) != 2 || got.CompatiblePrinters[1] != "ECOSYS M5526cdw" {
		t.Errorf("GetTonerType = %+v", got)
	}

	toner.PageYield = 5000
	toner.CompatiblePrinters = []string{"ECOSYS M5526cdw"}
	if err := s.UpsertTonerType(ctx, toner); err != nil {
		t.Fatalf("UpsertTonerType (replace): %v", err)
	}

	byModel, err := s.ListTonerTypes(ctx, "ecosys p5026cdn")
	if err != nil {
		t.Fatal(err)
	}
	if len(byModel) != 1 || byModel[0].ID != "tk-5240c" {
		t.Errorf("ListTonerTypes(P5026cdn) = %+v", byModel)
	}
	all, _ := s.ListTonerTypes(ctx, "")
	if len(all) != 2 || all[1].PageYield != 5000 || len(all[1].CompatiblePrinters) != 1 {
		t.Errorf("ListTonerTypes() = %+v", all)
	}

	if err := s.UpsertTonerType(ctx, &model.TonerType{ID: "bad", Model: "x", Brand: "y", Color: "teal", CompatiblePrinters: []string{"z"}}); !errors.Is(err, model.ErrInvalidEnumValue) {
		t.Errorf("bad colour error = %v", err)
	}

	if err := s.DeleteTonerType(ctx, "tk-5240c"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetTonerType(ctx, "tk-5240c"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTonerType after delete error = %v", err)
	}
}

func testTransferLogs(t *testing.T, s Store) {
	ctx := context.Background()
	mustClient(t, s, "c-1", "Acme")
	mustClient(t, s, "c-2", "Globex")
	if err := s.CreateDepartment(ctx, &model.Department{ID: "d-1", Name: "Finance", ClientID: "c-2"}); err != nil {
		t.Fatal(err)
	}
	p := mustPrinter(t, s, &model.Printer{OwnedBy: model.OwnedByClient, ClientID: "c-1", Location: "HQ"})

	entry := &model.TransferLog{
		PrinterID:    p.ID,
		Type:         "reassign",
		ToClientID:   "c-2",
		ToDepartment: "d-1",
		ToLocation:   "Branch 2",
		PerformedBy:  "tech-1",
		Timestamp:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := s.AppendTransferLog(ctx, entry); err != nil {
		t.Fatalf("AppendTransferLog: %v", err)
	}
	if entry.ID == 0 || entry.FromClientID != "c-1" || entry.FromLocation != "HQ" {
		t.Errorf("entry after append = %+v", entry)
	}

	moved, _ := s.GetPrinter(ctx, p.ID)
	if moved.ClientID != "c-2" || moved.Department != "d-1" || moved.Location != "Branch 2" {
		t.Errorf("printer not moved: %+v", moved)
	}

	// A client-owned printer cannot be transferred to no client.
	err := s.AppendTransferLog(ctx, &model.TransferLog{PrinterID: p.ID, Type: "return"})
	if !errors.Is(err, model.ErrMissingClientReference) {
		t.Errorf("transfer to nobody error = %v", err)
	}
	if err := s.AppendTransferLog(ctx, &model.TransferLog{PrinterID: p.ID, Type: "reassign", ToClientID: "ghost"}); !errors.Is(err, ErrClientNotFound) {
		t.Errorf("transfer to unknown client error = %v", err)
	}
	if err := s.AppendTransferLog(ctx, &model.TransferLog{PrinterID: "missing", Type: "deploy"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("transfer of unknown printer error = %v", err)
	}

	second := &model.TransferLog{PrinterID: p.ID, Type: "reassign", ToClientID: "c-1", Timestamp: entry.Timestamp.Add(time.Hour)}
	if err := s.AppendTransferLog(ctx, second); err != nil {
		t.Fatal(err)
	}

	logs, err := s.ListTransferLogs(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 || logs[0].ID != entry.ID || logs[1].FromClientID != "c-2" {
		t.Errorf("ListTransferLogs = %+v", logs)
	}
	if !logs[0].Timestamp.Equal(entry.Timestamp) {
		t.Errorf("timestamp = %v, want %v", logs[0].Timestamp, entry.Timestamp)
	}
}

func testMaintenanceLogs(t *testing.T, s Store) {
	ctx := context.Background()
	p := mustPrinter(t, s, &model.Printer{})

	for _, typ := range []string{"cleaning", "toner_replacement"} {
		if err := s.AppendMaintenanceLog(ctx, &model.MaintenanceLog{PrinterID: p.ID, Type: typ, PerformedBy: "tech-2"}); err != nil {
			t.Fatalf("AppendMaintenanceLog(%s): %v", typ, err)
		}
	}
	if err := s.AppendMaintenanceLog(ctx, &model.MaintenanceLog{PrinterID: "missing", Type: "repair"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("maintenance on unknown printer error = %v", err)
	}
	if err := s.AppendMaintenanceLog(ctx, &model.MaintenanceLog{PrinterID: p.ID}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("maintenance without type error = %v", err)
	}

	logs, err := s.ListMaintenanceLogs(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 || logs[0].Type != "cleaning" || logs[1].PerformedBy != "tech-2" {
		t.Errorf("ListMaintenanceLogs = %+v", logs)
	}

	if err := s.DeletePrinter(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	logs, _ = s.ListMaintenanceLogs(ctx, p.ID)
	if len(logs) != 0 {
		t.Errorf("history survived printer deletion: %+v", logs)
	}
}
