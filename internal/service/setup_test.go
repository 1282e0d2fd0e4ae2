package service

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rackmind/rackmind/internal/audit"
	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates a temp-file sqlite DB with all models migrated.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Datacenter{},
		&models.Environment{},
		&models.Server{},
		&models.Container{},
		&models.Service{},
		&models.GPU{},
		&models.PortMapping{},
		&models.AuditLog{},
		&models.UserPreference{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func adminActor() audit.Actor {
	return audit.Actor{ID: 1, Username: "alice", Role: models.RoleAdmin}
}

func userActor(id uint, username string) audit.Actor {
	return audit.Actor{ID: id, Username: username, Role: models.RoleUser}
}

func testClient() audit.ClientMeta {
	return audit.ClientMeta{IPAddress: "127.0.0.1", UserAgent: "test-agent"}
}

func createTestUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	u := models.User{
		Username:     username,
		PasswordHash: "x",
		DisplayName:  username,
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &u
}

func createTestDatacenter(t *testing.T, db *gorm.DB, name string) *models.Datacenter {
	t.Helper()
	dc := models.Datacenter{Name: name, Location: "somewhere", IsActive: true}
	if err := db.Create(&dc).Error; err != nil {
		t.Fatalf("create datacenter: %v", err)
	}
	return &dc
}

func createTestEnvironment(t *testing.T, db *gorm.DB, name, code string) *models.Environment {
	t.Helper()
	env := models.Environment{Name: name, Code: code}
	if err := db.Create(&env).Error; err != nil {
		t.Fatalf("create environment: %v", err)
	}
	return &env
}

func createTestServer(t *testing.T, db *gorm.DB, name, ip string, dcID, envID uint) *models.Server {
	t.Helper()
	srv := models.Server{
		Name:          name,
		DatacenterID:  dcID,
		EnvironmentID: envID,
		InternalIP:    ip,
		Status:        models.ServerStatusOnline,
		SSHPort:       22,
		SSHUser:       "root",
	}
	if err := db.Create(&srv).Error; err != nil {
		t.Fatalf("create server: %v", err)
	}
	return &srv
}

func createTestContainer(t *testing.T, db *gorm.DB, name string, serverID, ownerID uint) *models.Container {
	t.Helper()
	c := models.Container{
		Name:     name,
		ServerID: serverID,
		OwnerID:  ownerID,
		Status:   models.ContainerStatusRunning,
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create container: %v", err)
	}
	return &c
}

// topology creates a datacenter, environment and one server, returning
// all three for tests that need a host to hang resources on.
func topology(t *testing.T, db *gorm.DB) (*models.Datacenter, *models.Environment, *models.Server) {
	t.Helper()
	dc := createTestDatacenter(t, db, "dc-east")
	env := createTestEnvironment(t, db, "Production", "prod")
	srv := createTestServer(t, db, "web-01", "10.0.0.5", dc.ID, env.ID)
	return dc, env, srv
}

func auditLogs(t *testing.T, db *gorm.DB) []models.AuditLog {
	t.Helper()
	var logs []models.AuditLog
	if err := db.Order("id asc").Find(&logs).Error; err != nil {
		t.Fatalf("load audit logs: %v", err)
	}
	return logs
}

func lastAuditLog(t *testing.T, db *gorm.DB) *models.AuditLog {
	t.Helper()
	logs := auditLogs(t, db)
	if len(logs) == 0 {
		t.Fatal("no audit logs written")
	}
	return &logs[len(logs)-1]
}
