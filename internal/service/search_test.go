package service

import (
	"testing"

	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		keyword string
		want    SearchType
	}{
		{"192.168.1.10", SearchTypeIP},
		{"192.168", SearchTypeIP},
		{"192.", SearchTypeIP},
		{"8.8.8.8", SearchTypeIP},
		{"8080", SearchTypePort},
		{"22", SearchTypePort},
		{"65535", SearchTypePort},
		{"70000", SearchTypeKeyword}, // out of port range
		{"0", SearchTypeKeyword},
		{"nginx", SearchTypeKeyword},
		{"web-01", SearchTypeKeyword},
		{"10.0.0.1.2.3", SearchTypeKeyword}, // too many groups
	}

	for _, tc := range cases {
		if got := Classify(tc.keyword); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.keyword, got, tc.want)
		}
	}
}

// searchFixture: one server (10.0.0.5, ssh 22) hosting a container with
// an nginx service on port 8080 and a mapping 80 → 10.0.0.5:8080.
func searchFixture(t *testing.T, db *gorm.DB) {
	t.Helper()
	_, _, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", models.RoleUser)
	ct := createTestContainer(t, db, "web-app", srv.ID, owner.ID)
	if err := db.Create(&models.PortMapping{
		ContainerID:   ct.ID,
		ContainerPort: 80,
		InternalPort:  8080,
	}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&models.Service{
		Name:        "nginx",
		ContainerID: ct.ID,
		ServiceType: "web",
		Port:        8080,
		Status:      models.ServiceStatusHealthy,
	}).Error; err != nil {
		t.Fatal(err)
	}
}

func TestSearchByIPBuckets(t *testing.T) {
	db := testDB(t)
	searchFixture(t, db)
	svc := NewSearchService(db)

	result, err := svc.Search("10.0.0", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.SearchType != SearchTypeIP {
		t.Fatalf("search type = %q", result.SearchType)
	}
	if len(result.Servers) != 1 {
		t.Errorf("servers = %d", len(result.Servers))
	}
	// IP search never returns containers or services.
	if len(result.Containers) != 0 || len(result.Services) != 0 {
		t.Errorf("ip search leaked containers/services: %d/%d",
			len(result.Containers), len(result.Services))
	}
	if result.Total != len(result.Servers)+len(result.PortMappings) {
		t.Errorf("total = %d", result.Total)
	}
}

func TestSearchByPortBuckets(t *testing.T) {
	db := testDB(t)
	searchFixture(t, db)
	svc := NewSearchService(db)

	result, err := svc.Search("8080", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.SearchType != SearchTypePort {
		t.Fatalf("search type = %q", result.SearchType)
	}
	// 8080 hits the mapping's internal port and the service port.
	if len(result.PortMappings) != 1 {
		t.Errorf("port mappings = %d", len(result.PortMappings))
	}
	if len(result.Services) != 1 {
		t.Errorf("services = %d", len(result.Services))
	}

	// 22 hits only the server's SSH port.
	result, err = svc.Search("22", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Servers) != 1 {
		t.Errorf("ssh port search servers = %d", len(result.Servers))
	}
	if len(result.PortMappings) != 0 {
		t.Errorf("ssh port search mappings = %d", len(result.PortMappings))
	}
}

func TestSearchByKeywordBuckets(t *testing.T) {
	db := testDB(t)
	searchFixture(t, db)
	svc := NewSearchService(db)

	result, err := svc.Search("web", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.SearchType != SearchTypeKeyword {
		t.Fatalf("search type = %q", result.SearchType)
	}
	if len(result.Servers) != 1 { // web-01
		t.Errorf("servers = %d", len(result.Servers))
	}
	if len(result.Containers) != 1 { // web-app
		t.Errorf("containers = %d", len(result.Containers))
	}
	if len(result.Services) != 1 { // service_type "web"
		t.Errorf("services = %d", len(result.Services))
	}
	// Keyword search does not inspect port mappings.
	if len(result.PortMappings) != 0 {
		t.Errorf("keyword search mappings = %d", len(result.PortMappings))
	}
}

func TestSearchEmptyKeywordReturnsEmptyBuckets(t *testing.T) {
	db := testDB(t)
	svc := NewSearchService(db)

	result, err := svc.Search("   ", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Total != 0 {
		t.Errorf("total = %d", result.Total)
	}
	if result.Servers == nil || result.Containers == nil || result.Services == nil || result.PortMappings == nil {
		t.Error("buckets must be empty slices, never nil")
	}
}

func TestQuickSearch(t *testing.T) {
	db := testDB(t)
	searchFixture(t, db)
	svc := NewSearchService(db)

	// Below the minimum length nothing comes back.
	suggestions, err := svc.QuickSearch("w", 0)
	if err != nil {
		t.Fatalf("quick search: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("short query returned %d suggestions", len(suggestions))
	}

	suggestions, err = svc.QuickSearch("web", 0)
	if err != nil {
		t.Fatalf("quick search: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("suggestions = %d, want server + container", len(suggestions))
	}
	if suggestions[0].Type != "server" || suggestions[0].Subtitle != "10.0.0.5 - dc-east" {
		t.Errorf("server suggestion = %+v", suggestions[0])
	}
	if suggestions[1].Type != "container" || suggestions[1].Subtitle != "on web-01" {
		t.Errorf("container suggestion = %+v", suggestions[1])
	}

	// The limit caps the merged list.
	suggestions, err = svc.QuickSearch("web", 1)
	if err != nil {
		t.Fatalf("quick search: %v", err)
	}
	if len(suggestions) != 1 {
		t.Errorf("limited suggestions = %d", len(suggestions))
	}
}
