package service

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rackmind/rackmind/internal/audit"
	"github.com/rackmind/rackmind/internal/models"
)

func TestServerCreateDefaults(t *testing.T) {
	db := testDB(t)
	dc, env, _ := topology(t, db)
	svc := NewServerService(db)

	srv, err := svc.Create(adminActor(), CreateServerRequest{
		Name:          "db-01",
		DatacenterID:  dc.ID,
		EnvironmentID: env.ID,
		InternalIP:    "10.0.0.6",
	}, testClient())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if srv.Status != models.ServerStatusOnline {
		t.Errorf("status = %q", srv.Status)
	}
	if srv.SSHPort != 22 || srv.SSHUser != "root" {
		t.Errorf("ssh defaults = %d/%q", srv.SSHPort, srv.SSHUser)
	}
	if got := srv.SSHCommand(); got != "ssh -p 22 root@10.0.0.6" {
		t.Errorf("ssh command = %q", got)
	}

	log := lastAuditLog(t, db)
	if log.Action != audit.ActionCreate || log.ResourceType != audit.ResourceServer {
		t.Errorf("audit row = %s/%s", log.Action, log.ResourceType)
	}
	if log.Username != "alice" {
		t.Errorf("audit username = %q", log.Username)
	}
}

func TestServerCreateMissingForeignKey(t *testing.T) {
	db := testDB(t)
	svc := NewServerService(db)

	_, err := svc.Create(adminActor(), CreateServerRequest{
		Name:          "orphan",
		DatacenterID:  999,
		EnvironmentID: 999,
		InternalIP:    "10.0.0.9",
	}, testClient())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if len(auditLogs(t, db)) != 0 {
		t.Error("failed create left an audit row")
	}
}

func TestServerUpdateRecordsDiff(t *testing.T) {
	db := testDB(t)
	_, _, srv := topology(t, db)
	svc := NewServerService(db)

	newName := "web-01-renamed"
	cores := 32
	status := models.ServerStatusMaintenance
	_, err := svc.Update(adminActor(), srv.ID, ServerPatch{
		Name:     &newName,
		CPUCores: &cores,
		Status:   &status,
	}, testClient())
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	log := lastAuditLog(t, db)
	if log.Action != audit.ActionUpdate {
		t.Fatalf("action = %q", log.Action)
	}

	var changes map[string]audit.FieldChange
	if err := json.Unmarshal(log.Changes, &changes); err != nil {
		t.Fatalf("unmarshal changes: %v", err)
	}
	for _, key := range []string{"name", "cpu_cores", "status"} {
		if _, ok := changes[key]; !ok {
			t.Errorf("missing change key %q in %v", key, changes)
		}
	}
	if len(changes) != 3 {
		t.Errorf("changes has %d keys, want 3: %v", len(changes), changes)
	}
	if changes["name"].Old != "web-01" || changes["name"].New != "web-01-renamed" {
		t.Errorf("name change = %+v", changes["name"])
	}
}

func TestServerNoopUpdateSkipsAudit(t *testing.T) {
	db := testDB(t)
	_, _, srv := topology(t, db)
	svc := NewServerService(db)

	sameName := srv.Name
	sameIP := srv.InternalIP
	_, err := svc.Update(adminActor(), srv.ID, ServerPatch{
		Name:       &sameName,
		InternalIP: &sameIP,
	}, testClient())
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := len(auditLogs(t, db)); got != 0 {
		t.Errorf("no-op update wrote %d audit rows", got)
	}
}

func TestServerDeleteCascades(t *testing.T) {
	db := testDB(t)
	_, _, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", models.RoleUser)
	ct := createTestContainer(t, db, "app", srv.ID, owner.ID)
	if err := db.Create(&models.PortMapping{ContainerID: ct.ID, ContainerPort: 80, InternalPort: 8080}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&models.Service{Name: "nginx", ContainerID: ct.ID, Status: models.ServiceStatusHealthy}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&models.GPU{ServerID: srv.ID, Model: "A100", MemoryGB: 80, Status: models.GPUStatusFree}).Error; err != nil {
		t.Fatal(err)
	}

	svc := NewServerService(db)
	if err := svc.Delete(adminActor(), srv.ID, testClient()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for name, model := range map[string]any{
		"servers":       &models.Server{},
		"containers":    &models.Container{},
		"port_mappings": &models.PortMapping{},
		"services":      &models.Service{},
		"gpus":          &models.GPU{},
	} {
		var count int64
		if err := db.Model(model).Count(&count).Error; err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Errorf("%s left %d rows after cascade", name, count)
		}
	}

	log := lastAuditLog(t, db)
	if log.Action != audit.ActionDelete {
		t.Fatalf("action = %q", log.Action)
	}
	if len(log.Snapshot) == 0 {
		t.Error("delete audit row has no snapshot")
	}
}

func TestServerBatchUpdatePartialSuccess(t *testing.T) {
	db := testDB(t)
	dc, env, srv1 := topology(t, db)
	srv2 := createTestServer(t, db, "web-02", "10.0.0.7", dc.ID, env.ID)

	svc := NewServerService(db)
	status := models.ServerStatusOffline
	result, err := svc.BatchUpdate(adminActor(), []uint{srv1.ID, 999, srv2.ID}, ServerPatch{
		Status: &status,
	}, testClient())
	if err != nil {
		t.Fatalf("batch update: %v", err)
	}

	if result.SuccessCount != 2 || result.FailedCount != 1 {
		t.Fatalf("result = %d ok / %d failed", result.SuccessCount, result.FailedCount)
	}
	if result.Failed[0].ID != 999 {
		t.Errorf("failed id = %d", result.Failed[0].ID)
	}

	// Successful ids must be committed despite the failure.
	var got models.Server
	if err := db.First(&got, srv2.ID).Error; err != nil {
		t.Fatal(err)
	}
	if got.Status != models.ServerStatusOffline {
		t.Errorf("srv2 status = %q, want offline", got.Status)
	}

	logs := auditLogs(t, db)
	if len(logs) != 2 {
		t.Fatalf("audit rows = %d, want 2", len(logs))
	}
	for _, log := range logs {
		if log.Action != audit.ActionBatchUpdate {
			t.Errorf("action = %q", log.Action)
		}
	}
}
