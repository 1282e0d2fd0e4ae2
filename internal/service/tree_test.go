package service

import (
	"errors"
	"testing"

	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

// buildTreeFixture creates one server with two containers (the first
// carrying services and deliberately unsorted port mappings) and a GPU.
func buildTreeFixture(t *testing.T, db *gorm.DB) *models.Server {
	t.Helper()
	_, _, srv := topology(t, db)
	owner := createTestUser(t, db, "bob", models.RoleUser)

	app := createTestContainer(t, db, "app", srv.ID, owner.ID)
	createTestContainer(t, db, "cache", srv.ID, owner.ID)

	for _, port := range []int{443, 22, 80} {
		if err := db.Create(&models.PortMapping{
			ContainerID:   app.ID,
			ContainerPort: port,
			InternalPort:  port + 10000,
		}).Error; err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Create(&models.Service{Name: "nginx", ContainerID: app.ID, Status: models.ServiceStatusHealthy}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&models.GPU{ServerID: srv.ID, Model: "A100", MemoryGB: 80, Status: models.GPUStatusFree}).Error; err != nil {
		t.Fatal(err)
	}
	return srv
}

func TestTreeLevelOneIsFlat(t *testing.T) {
	db := testDB(t)
	buildTreeFixture(t, db)
	svc := NewTreeService(db)

	nodes, err := svc.BuildTree(TreeFilter{}, TreeLevelServers)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("nodes = %d", len(nodes))
	}

	node := nodes[0]
	if node.Type != NodeTypeServer {
		t.Errorf("node type = %q", node.Type)
	}
	if !node.HasChildren {
		t.Error("has_children should be true at level 1 too")
	}
	if len(node.Children) != 0 {
		t.Errorf("level 1 expanded children: %d", len(node.Children))
	}
	if node.Children == nil {
		t.Error("children must be an empty slice, not nil")
	}
}

func TestTreeLevelTwoChildren(t *testing.T) {
	db := testDB(t)
	buildTreeFixture(t, db)
	svc := NewTreeService(db)

	nodes, err := svc.BuildTree(TreeFilter{}, TreeLevelContainers)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	children := nodes[0].Children

	// summary, two containers, one gpu
	if len(children) != 4 {
		t.Fatalf("children = %d, want 4", len(children))
	}

	summary, ok := children[0].(SummaryNode)
	if !ok {
		t.Fatalf("first child is %T, want SummaryNode", children[0])
	}
	if summary.ContainerCount != 2 || summary.GPUCount != 1 {
		t.Errorf("summary counts = %d containers / %d gpus", summary.ContainerCount, summary.GPUCount)
	}

	app, ok := children[1].(ContainerNode)
	if !ok {
		t.Fatalf("second child is %T, want ContainerNode", children[1])
	}
	if app.Name != "app" {
		t.Errorf("container order wrong, first = %q", app.Name)
	}
	// Port mappings must come back sorted by container port.
	ports := make([]int, 0, len(app.PortMappings))
	for _, pm := range app.PortMappings {
		ports = append(ports, pm.ContainerPort)
	}
	if len(ports) != 3 || ports[0] != 22 || ports[1] != 80 || ports[2] != 443 {
		t.Errorf("mapping ports = %v", ports)
	}
	// Services are not expanded at level 2.
	if len(app.Children) != 0 {
		t.Errorf("level 2 container has %d children", len(app.Children))
	}
	if app.ServiceCount != 1 {
		t.Errorf("service count = %d", app.ServiceCount)
	}

	if _, ok := children[3].(GPUNode); !ok {
		t.Errorf("last child is %T, want GPUNode", children[3])
	}
}

func TestTreeLevelThreeExpandsServices(t *testing.T) {
	db := testDB(t)
	buildTreeFixture(t, db)
	svc := NewTreeService(db)

	nodes, err := svc.BuildTree(TreeFilter{}, TreeLevelServices)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	app := nodes[0].Children[1].(ContainerNode)
	if len(app.Children) != 1 {
		t.Fatalf("service children = %d", len(app.Children))
	}
	svcNode, ok := app.Children[0].(ServiceNode)
	if !ok {
		t.Fatalf("child is %T, want ServiceNode", app.Children[0])
	}
	if svcNode.Name != "nginx" {
		t.Errorf("service name = %q", svcNode.Name)
	}
}

func TestTreeRejectsBadLevel(t *testing.T) {
	db := testDB(t)
	svc := NewTreeService(db)

	for _, level := range []int{0, 4, -1} {
		_, err := svc.BuildTree(TreeFilter{}, level)
		var validation *ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("level %d: err = %v, want ValidationError", level, err)
		}
	}
}

func TestTreeFiltersByDatacenter(t *testing.T) {
	db := testDB(t)
	srv := buildTreeFixture(t, db)
	otherDC := createTestDatacenter(t, db, "dc-west")
	env := createTestEnvironment(t, db, "Staging", "staging")
	createTestServer(t, db, "apart-01", "10.1.0.5", otherDC.ID, env.ID)

	svc := NewTreeService(db)
	nodes, err := svc.BuildTree(TreeFilter{DatacenterID: &srv.DatacenterID}, TreeLevelServers)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "web-01" {
		t.Errorf("filter returned %d nodes", len(nodes))
	}
}
