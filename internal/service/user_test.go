package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/rackmind/rackmind/internal/audit"
	"github.com/rackmind/rackmind/internal/auth"
	"github.com/rackmind/rackmind/internal/models"
	"github.com/rackmind/rackmind/internal/rbac"
	"gorm.io/gorm"
)

// userTestDB also initializes the RBAC enforcer, which user operations
// keep in sync. The enforcer is global, so it is re-pointed per test.
func userTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testDB(t)
	if err := rbac.InitEnforcer(db, slog.Default()); err != nil {
		t.Fatalf("init rbac: %v", err)
	}
	return db
}

func TestUserCreateHashesPasswordAndSyncsRole(t *testing.T) {
	db := userTestDB(t)
	svc := NewUserService(db)

	u, err := svc.Create(adminActor(), CreateUserRequest{
		Username:    "bob",
		Password:    "hunter22",
		DisplayName: "Bob",
		Role:        models.RoleAdmin,
	}, testClient())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if u.PasswordHash == "hunter22" || u.PasswordHash == "" {
		t.Error("password stored unhashed")
	}
	if !auth.VerifyPassword(u.PasswordHash, "hunter22") {
		t.Error("stored hash does not verify")
	}

	isAdmin, err := rbac.IsAdmin(u.ID)
	if err != nil || !isAdmin {
		t.Errorf("rbac admin check = %v, %v", isAdmin, err)
	}
}

func TestUserCreateRejectsDuplicates(t *testing.T) {
	db := userTestDB(t)
	svc := NewUserService(db)

	email := "bob@corp.example"
	_, err := svc.Create(adminActor(), CreateUserRequest{
		Username: "bob", Password: "secret1", DisplayName: "Bob", Email: &email,
	}, testClient())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Create(adminActor(), CreateUserRequest{
		Username: "bob", Password: "secret1", DisplayName: "Bob 2",
	}, testClient())
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) || dup.Field != "username" {
		t.Errorf("err = %v, want duplicate username", err)
	}

	_, err = svc.Create(adminActor(), CreateUserRequest{
		Username: "bob2", Password: "secret1", DisplayName: "Bob 2", Email: &email,
	}, testClient())
	if !errors.As(err, &dup) || dup.Field != "email" {
		t.Errorf("err = %v, want duplicate email", err)
	}
}

func TestUserEmptyEmailStoredAsNull(t *testing.T) {
	db := userTestDB(t)
	svc := NewUserService(db)

	empty := ""
	first, err := svc.Create(adminActor(), CreateUserRequest{
		Username: "bob", Password: "secret1", DisplayName: "Bob", Email: &empty,
	}, testClient())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Email != nil {
		t.Errorf("email = %q, want nil", *first.Email)
	}

	// A second email-less account must not clash on the unique index.
	if _, err := svc.Create(adminActor(), CreateUserRequest{
		Username: "carol", Password: "secret1", DisplayName: "Carol", Email: &empty,
	}, testClient()); err != nil {
		t.Fatalf("second create: %v", err)
	}

	// Setting then blanking an email clears the column.
	addr := "bob@corp.example"
	if _, err := svc.Update(adminActor(), first.ID, UserPatch{Email: &addr}, testClient()); err != nil {
		t.Fatalf("set email: %v", err)
	}
	updated, err := svc.Update(adminActor(), first.ID, UserPatch{Email: &empty}, testClient())
	if err != nil {
		t.Fatalf("clear email: %v", err)
	}
	if updated.Email != nil {
		t.Errorf("email = %q after clear, want nil", *updated.Email)
	}
}

func TestUserPasswordChangeIsRedactedInAudit(t *testing.T) {
	db := userTestDB(t)
	target := createTestUser(t, db, "bob", models.RoleUser)
	svc := NewUserService(db)

	newPassword := "n3w-secret"
	_, err := svc.Update(adminActor(), target.ID, UserPatch{Password: &newPassword}, testClient())
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	log := lastAuditLog(t, db)
	var changes map[string]audit.FieldChange
	if err := json.Unmarshal(log.Changes, &changes); err != nil {
		t.Fatalf("unmarshal changes: %v", err)
	}
	pw, ok := changes["password"]
	if !ok {
		t.Fatal("password change not recorded")
	}
	if pw.Old != audit.Redacted || pw.New != audit.Redacted {
		t.Errorf("password change = %+v, want redacted", pw)
	}
	if strings.Contains(string(log.Changes), newPassword) {
		t.Error("plaintext password leaked into audit trail")
	}
}

func TestUserDeleteForbidsSelf(t *testing.T) {
	db := userTestDB(t)
	me := createTestUser(t, db, "alice", models.RoleAdmin)
	svc := NewUserService(db)

	err := svc.Delete(userActor(me.ID, "alice"), me.ID, testClient())
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("err = %v, want ConflictError", err)
	}
}

func TestUserDeleteSnapshotOmitsHash(t *testing.T) {
	db := userTestDB(t)
	createTestUser(t, db, "alice", models.RoleAdmin) // takes id 1, so the target cannot collide with adminActor
	target := createTestUser(t, db, "bob", models.RoleUser)
	target.PasswordHash = "$2a$10$fakehashfakehashfakehash"
	if err := db.Save(target).Error; err != nil {
		t.Fatal(err)
	}
	svc := NewUserService(db)

	if err := svc.Delete(adminActor(), target.ID, testClient()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	log := lastAuditLog(t, db)
	if len(log.Snapshot) == 0 {
		t.Fatal("no snapshot written")
	}
	if strings.Contains(string(log.Snapshot), "fakehash") {
		t.Error("password hash leaked into snapshot")
	}
}

func TestUserOptionsOnlyActive(t *testing.T) {
	db := userTestDB(t)
	createTestUser(t, db, "bob", models.RoleUser)
	inactive := createTestUser(t, db, "carol", models.RoleUser)
	if err := db.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}

	svc := NewUserService(db)
	options, err := svc.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if len(options) != 1 || options[0].Username != "bob" {
		t.Errorf("options = %+v", options)
	}
}
