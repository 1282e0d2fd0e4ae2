package service

import (
	"errors"
	"testing"

	"github.com/rackmind/rackmind/internal/models"
)

func TestEnvironmentListCountsAndOrder(t *testing.T) {
	db := testDB(t)
	for _, env := range models.DefaultEnvironments() {
		if err := db.Create(&env).Error; err != nil {
			t.Fatal(err)
		}
	}
	dc := createTestDatacenter(t, db, "dc-east")

	var prod models.Environment
	if err := db.Where("code = ?", "prod").First(&prod).Error; err != nil {
		t.Fatal(err)
	}
	createTestServer(t, db, "web-01", "10.0.0.5", dc.ID, prod.ID)
	createTestServer(t, db, "web-02", "10.0.0.6", dc.ID, prod.ID)

	svc := NewEnvironmentService(db)
	envs, err := svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(envs) != 4 {
		t.Fatalf("environments = %d, want 4", len(envs))
	}
	if envs[0].Code != "prod" {
		t.Errorf("first environment = %q, want prod", envs[0].Code)
	}
	if envs[0].ServerCount != 2 {
		t.Errorf("prod server count = %d", envs[0].ServerCount)
	}
	for _, env := range envs[1:] {
		if env.ServerCount != 0 {
			t.Errorf("%s server count = %d", env.Code, env.ServerCount)
		}
	}
}

func TestEnvironmentGetMissing(t *testing.T) {
	db := testDB(t)
	svc := NewEnvironmentService(db)
	_, err := svc.Get(99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
