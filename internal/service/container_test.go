package service

import (
	"errors"
	"testing"

	"github.com/rackmind/rackmind/internal/audit"
	"github.com/rackmind/rackmind/internal/models"
)

func TestContainerCreateWithPortMappings(t *testing.T) {
	db := testDB(t)
	_, _, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", models.RoleUser)
	svc := NewContainerService(db)

	view, err := svc.Create(userActor(owner.ID, "bob"), CreateContainerRequest{
		Name:     "devbox",
		ServerID: srv.ID,
		Image:    "ubuntu:22.04",
		PortMappings: []PortMappingInput{
			{ContainerPort: 22, InternalPort: 20022},
			{ContainerPort: 80}, // missing internal port, skipped
		},
	}, testClient())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if view.OwnerID != owner.ID {
		t.Errorf("owner = %d, want actor %d", view.OwnerID, owner.ID)
	}
	if len(view.PortMappings) != 1 {
		t.Fatalf("mappings = %d, want 1 (incomplete one skipped)", len(view.PortMappings))
	}
	pm := view.PortMappings[0]
	if pm.Protocol != "tcp" {
		t.Errorf("protocol = %q, want tcp default", pm.Protocol)
	}
	if pm.MappingChain != "22 → 10.0.0.5:20022" {
		t.Errorf("chain = %q", pm.MappingChain)
	}
}

func TestContainerMappingChainGainsExternalHop(t *testing.T) {
	db := testDB(t)
	_, _, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", models.RoleUser)
	ct := createTestContainer(t, db, "devbox", srv.ID, owner.ID)
	svc := NewContainerService(db)

	pm, err := svc.AddPortMapping(userActor(owner.ID, "bob"), ct.ID, PortMappingInput{
		ContainerPort: 22,
		InternalPort:  20022,
	}, testClient())
	if err != nil {
		t.Fatalf("add mapping: %v", err)
	}
	if pm.MappingChain != "22 → 10.0.0.5:20022" {
		t.Errorf("chain = %q", pm.MappingChain)
	}
	if pm.ExternalAddress != nil {
		t.Errorf("external address = %v, want none", *pm.ExternalAddress)
	}

	// Publishing the port externally extends the chain by one hop.
	view, err := svc.Update(userActor(owner.ID, "bob"), ct.ID, ContainerPatch{
		PortMappings: []PortMappingInput{
			{ContainerPort: 22, InternalPort: 20022, ExternalIP: "1.2.3.4", ExternalPort: 8022},
		},
		ReplacePortMappings: true,
	}, testClient())
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(view.PortMappings) != 1 {
		t.Fatalf("mappings = %d", len(view.PortMappings))
	}
	want := "22 → 10.0.0.5:20022 → 1.2.3.4:8022"
	if view.PortMappings[0].MappingChain != want {
		t.Errorf("chain = %q, want %q", view.PortMappings[0].MappingChain, want)
	}
}

func TestContainerUpdateRequiresOwnerOrAdmin(t *testing.T) {
	db := testDB(t)
	_, _, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", models.RoleUser)
	other := createTestUser(t, db, "carol", models.RoleUser)
	ct := createTestContainer(t, db, "devbox", srv.ID, owner.ID)
	svc := NewContainerService(db)

	name := "renamed"
	_, err := svc.Update(userActor(other.ID, "carol"), ct.ID, ContainerPatch{Name: &name}, testClient())
	var denied *PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("err = %v, want PermissionDeniedError", err)
	}

	// An admin who is not the owner may still modify it.
	if _, err := svc.Update(adminActor(), ct.ID, ContainerPatch{Name: &name}, testClient()); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestContainerAssignedUserClear(t *testing.T) {
	db := testDB(t)
	_, _, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", models.RoleUser)
	assignee := createTestUser(t, db, "carol", models.RoleUser)
	ct := createTestContainer(t, db, "devbox", srv.ID, owner.ID)
	svc := NewContainerService(db)

	view, err := svc.Update(userActor(owner.ID, "bob"), ct.ID, ContainerPatch{
		AssignedUserID: &assignee.ID,
	}, testClient())
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if view.AssignedUserID == nil || *view.AssignedUserID != assignee.ID {
		t.Fatalf("assigned_user_id = %v", view.AssignedUserID)
	}

	view, err = svc.Update(userActor(owner.ID, "bob"), ct.ID, ContainerPatch{
		ClearAssignedUser: true,
	}, testClient())
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if view.AssignedUserID != nil {
		t.Errorf("assigned_user_id = %v, want nil", *view.AssignedUserID)
	}
}

func TestContainerDeleteCascades(t *testing.T) {
	db := testDB(t)
	_, _, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", models.RoleUser)
	ct := createTestContainer(t, db, "devbox", srv.ID, owner.ID)
	if err := db.Create(&models.PortMapping{ContainerID: ct.ID, ContainerPort: 80, InternalPort: 8080}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&models.Service{Name: "nginx", ContainerID: ct.ID, Status: models.ServiceStatusHealthy}).Error; err != nil {
		t.Fatal(err)
	}

	svc := NewContainerService(db)
	if err := svc.Delete(userActor(owner.ID, "bob"), ct.ID, testClient()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var pmCount, svcCount int64
	db.Model(&models.PortMapping{}).Count(&pmCount)
	db.Model(&models.Service{}).Count(&svcCount)
	if pmCount != 0 || svcCount != 0 {
		t.Errorf("children left behind: %d mappings, %d services", pmCount, svcCount)
	}

	// The server must survive its container's removal.
	var count int64
	db.Model(&models.Server{}).Where("id = ?", srv.ID).Count(&count)
	if count != 1 {
		t.Error("server deleted by container cascade")
	}
}

func TestContainerBatchDeletePartialSuccess(t *testing.T) {
	db := testDB(t)
	_, _, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", models.RoleUser)
	mine := createTestContainer(t, db, "mine", srv.ID, owner.ID)
	other := createTestUser(t, db, "carol", models.RoleUser)
	theirs := createTestContainer(t, db, "theirs", srv.ID, other.ID)

	svc := NewContainerService(db)
	result, err := svc.BatchDelete(userActor(owner.ID, "bob"), []uint{mine.ID, theirs.ID, 999}, testClient())
	if err != nil {
		t.Fatalf("batch delete: %v", err)
	}

	if result.SuccessCount != 1 || result.FailedCount != 2 {
		t.Fatalf("result = %d ok / %d failed", result.SuccessCount, result.FailedCount)
	}

	var count int64
	db.Model(&models.Container{}).Where("id = ?", theirs.ID).Count(&count)
	if count != 1 {
		t.Error("foreign container was deleted")
	}
}

func TestContainerSortOrderAdminOnly(t *testing.T) {
	db := testDB(t)
	_, _, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", models.RoleUser)
	ct := createTestContainer(t, db, "devbox", srv.ID, owner.ID)
	svc := NewContainerService(db)

	err := svc.UpdateSortOrder(userActor(owner.ID, "bob"), []SortOrderItem{{ID: ct.ID, SortOrder: 3}})
	var denied *PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("err = %v, want PermissionDeniedError", err)
	}

	if err := svc.UpdateSortOrder(adminActor(), []SortOrderItem{{ID: ct.ID, SortOrder: 3}}); err != nil {
		t.Fatalf("admin sort order: %v", err)
	}
	var got models.Container
	db.First(&got, ct.ID)
	if got.SortOrder != 3 {
		t.Errorf("sort_order = %d", got.SortOrder)
	}
	if len(auditLogs(t, db)) != 0 {
		t.Error("sort order change was audited")
	}
}

func TestPortMappingUpdate(t *testing.T) {
	db := testDB(t)
	_, _, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", models.RoleUser)
	other := createTestUser(t, db, "carol", models.RoleUser)
	ct := createTestContainer(t, db, "devbox", srv.ID, owner.ID)
	pm := models.PortMapping{ContainerID: ct.ID, ContainerPort: 443, InternalPort: 8443, Protocol: "tcp"}
	if err := db.Create(&pm).Error; err != nil {
		t.Fatal(err)
	}

	svc := NewContainerService(db)

	newPort := 9443
	_, err := svc.UpdatePortMapping(userActor(other.ID, "carol"), pm.ID, PortMappingPatch{
		InternalPort: &newPort,
	}, testClient())
	var denied *PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("err = %v, want PermissionDeniedError", err)
	}

	ext := "1.2.3.4"
	extPort := 8443
	view, err := svc.UpdatePortMapping(userActor(owner.ID, "bob"), pm.ID, PortMappingPatch{
		ExternalIP:   &ext,
		ExternalPort: &extPort,
	}, testClient())
	if err != nil {
		t.Fatalf("update mapping: %v", err)
	}
	want := "443 → 10.0.0.5:8443 → 1.2.3.4:8443"
	if view.MappingChain != want {
		t.Errorf("chain = %q, want %q", view.MappingChain, want)
	}

	log := lastAuditLog(t, db)
	if log.ResourceType != audit.ResourcePortMapping || log.Action != audit.ActionUpdate {
		t.Errorf("audit row = %s/%s", log.Action, log.ResourceType)
	}
	if log.ResourceName != "devbox:443" {
		t.Errorf("resource name = %q", log.ResourceName)
	}

	// A patch that changes nothing leaves the trail alone.
	before := len(auditLogs(t, db))
	if _, err := svc.UpdatePortMapping(userActor(owner.ID, "bob"), pm.ID, PortMappingPatch{
		ExternalIP: &ext,
	}, testClient()); err != nil {
		t.Fatalf("no-op update: %v", err)
	}
	if got := len(auditLogs(t, db)); got != before {
		t.Errorf("audit rows = %d, want %d", got, before)
	}
}

func TestPortMappingDeleteAudited(t *testing.T) {
	db := testDB(t)
	_, _, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", models.RoleUser)
	ct := createTestContainer(t, db, "devbox", srv.ID, owner.ID)
	pm := models.PortMapping{ContainerID: ct.ID, ContainerPort: 443, InternalPort: 8443}
	if err := db.Create(&pm).Error; err != nil {
		t.Fatal(err)
	}

	svc := NewContainerService(db)
	if err := svc.DeletePortMapping(userActor(owner.ID, "bob"), pm.ID, testClient()); err != nil {
		t.Fatalf("delete mapping: %v", err)
	}

	log := lastAuditLog(t, db)
	if log.ResourceType != audit.ResourcePortMapping || log.Action != audit.ActionDelete {
		t.Errorf("audit row = %s/%s", log.Action, log.ResourceType)
	}
	if log.ResourceName != "devbox:443" {
		t.Errorf("resource name = %q", log.ResourceName)
	}
}
