package service

import (
	"errors"
	"testing"

	"github.com/rackmind/rackmind/internal/audit"
)

func TestDatacenterCreateRejectsDuplicateName(t *testing.T) {
	db := testDB(t)
	svc := NewDatacenterService(db)

	_, err := svc.Create(adminActor(), CreateDatacenterRequest{Name: "dc-east"}, testClient())
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err = svc.Create(adminActor(), CreateDatacenterRequest{Name: "dc-east"}, testClient())
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateKeyError", err)
	}
	if dup.Field != "name" {
		t.Errorf("duplicate field = %q", dup.Field)
	}
}

func TestDatacenterDeleteBlockedByServers(t *testing.T) {
	db := testDB(t)
	_, _, _ = topology(t, db)
	svc := NewDatacenterService(db)

	dcs, err := svc.List()
	if err != nil || len(dcs) != 1 {
		t.Fatalf("list: %v (%d)", err, len(dcs))
	}

	err = svc.Delete(adminActor(), dcs[0].ID, testClient())
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}

	// The datacenter must survive the refused delete.
	if _, err := svc.Get(dcs[0].ID); err != nil {
		t.Errorf("datacenter gone after refused delete: %v", err)
	}
	if len(auditLogs(t, db)) != 0 {
		t.Error("refused delete left an audit row")
	}
}

func TestDatacenterDeleteWritesSnapshot(t *testing.T) {
	db := testDB(t)
	dc := createTestDatacenter(t, db, "dc-west")
	svc := NewDatacenterService(db)

	if err := svc.Delete(adminActor(), dc.ID, testClient()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	log := lastAuditLog(t, db)
	if log.Action != audit.ActionDelete || log.ResourceType != audit.ResourceDatacenter {
		t.Errorf("audit row = %s/%s", log.Action, log.ResourceType)
	}
	if log.ResourceName != "dc-west" {
		t.Errorf("resource name = %q", log.ResourceName)
	}
	if len(log.Snapshot) == 0 {
		t.Error("delete audit row has no snapshot")
	}
}

func TestDatacenterOverviewCounts(t *testing.T) {
	db := testDB(t)
	dc, env, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", "user")
	createTestContainer(t, db, "app-1", srv.ID, owner.ID)
	createTestContainer(t, db, "app-2", srv.ID, owner.ID)
	_ = createTestServer(t, db, "web-02", "10.0.0.7", dc.ID, env.ID)

	svc := NewDatacenterService(db)
	stats, err := svc.Overview()
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stats rows = %d", len(stats))
	}
	if stats[0].ServerCount != 2 {
		t.Errorf("server count = %d, want 2", stats[0].ServerCount)
	}
	if stats[0].ContainerCount != 2 {
		t.Errorf("container count = %d, want 2", stats[0].ContainerCount)
	}
}
