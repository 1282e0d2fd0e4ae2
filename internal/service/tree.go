package service

import (
	"sort"

	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

// Expansion levels for the server tree.
const (
	TreeLevelServers    = 1 // flat server summaries
	TreeLevelContainers = 2 // + summary node, containers, gpus
	TreeLevelServices   = 3 // + services under containers
)

// NodeType discriminates tree node variants so a generic renderer can
// switch without inspecting shape.
type NodeType string

const (
	NodeTypeServer    NodeType = "server"
	NodeTypeSummary   NodeType = "summary"
	NodeTypeContainer NodeType = "container"
	NodeTypeService   NodeType = "service"
	NodeTypeGPU       NodeType = "gpu"
)

// TreeNode is the closed set of node variants; each concrete node
// carries its discriminant in the node_type field.
type TreeNode interface {
	nodeType() NodeType
}

// ServerNode is the root variant. Children is populated at level ≥ 2
// and is then never nil, even for a server with nothing under it.
type ServerNode struct {
	Type NodeType `json:"node_type"`
	ServerView
	HasChildren bool       `json:"has_children"`
	Children    []TreeNode `json:"children"`
}

func (ServerNode) nodeType() NodeType { return NodeTypeServer }

// SummaryNode is the synthetic resource-usage row emitted first under
// each expanded server. It is not a real entity.
type SummaryNode struct {
	Type           NodeType `json:"node_type"`
	ServerID       uint     `json:"server_id"`
	CPUUsage       float64  `json:"cpu_usage"`
	MemoryUsage    float64  `json:"memory_usage"`
	DiskUsage      float64  `json:"disk_usage"`
	ContainerCount int      `json:"container_count"`
	GPUCount       int      `json:"gpu_count"`
}

func (SummaryNode) nodeType() NodeType { return NodeTypeSummary }

// ContainerNode wraps a container; port mappings are attached sorted by
// container port. Children holds services at level 3.
type ContainerNode struct {
	Type NodeType `json:"node_type"`
	ContainerView
	Children []TreeNode `json:"children,omitempty"`
}

func (ContainerNode) nodeType() NodeType { return NodeTypeContainer }

// ServiceNode is the leaf variant under a container.
type ServiceNode struct {
	Type NodeType `json:"node_type"`
	models.Service
}

func (ServiceNode) nodeType() NodeType { return NodeTypeService }

// GPUNode is the leaf variant for a card, a sibling of containers.
type GPUNode struct {
	Type NodeType `json:"node_type"`
	GPUView
}

func (GPUNode) nodeType() NodeType { return NodeTypeGPU }

// TreeFilter narrows the tree to one datacenter and/or environment.
type TreeFilter struct {
	DatacenterID  *uint
	EnvironmentID *uint
}

// TreeService materializes the server-rooted hierarchy for display.
type TreeService struct {
	db *gorm.DB
}

// NewTreeService creates a new TreeService.
func NewTreeService(db *gorm.DB) *TreeService {
	return &TreeService{db: db}
}

// BuildTree returns servers ordered by name, expanded to the requested
// level. Under each expanded server the children are: one summary node,
// then containers (port mappings sorted ascending), then GPUs.
func (s *TreeService) BuildTree(filter TreeFilter, level int) ([]ServerNode, error) {
	if level < TreeLevelServers || level > TreeLevelServices {
		return nil, &ValidationError{Message: "expand_level must be 1, 2 or 3"}
	}

	query := s.db.Model(&models.Server{})
	if filter.DatacenterID != nil {
		query = query.Where("datacenter_id = ?", *filter.DatacenterID)
	}
	if filter.EnvironmentID != nil {
		query = query.Where("environment_id = ?", *filter.EnvironmentID)
	}

	var servers []models.Server
	err := query.
		Preload("Datacenter").Preload("Environment").
		Preload("Containers", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, name")
		}).
		Preload("Containers.PortMappings").
		Preload("Containers.Services", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, name")
		}).
		Preload("GPUs", func(db *gorm.DB) *gorm.DB {
			return db.Order("card_index")
		}).
		Order("name").
		Find(&servers).Error
	if err != nil {
		return nil, err
	}

	nodes := make([]ServerNode, 0, len(servers))
	for _, srv := range servers {
		nodes = append(nodes, buildServerNode(srv, level))
	}
	return nodes, nil
}

func buildServerNode(srv models.Server, level int) ServerNode {
	view := NewServerView(srv)
	view.Containers = nil // children render as tagged nodes, not inline
	view.GPUs = nil
	node := ServerNode{
		Type:        NodeTypeServer,
		ServerView:  view,
		HasChildren: len(srv.Containers)+len(srv.GPUs) > 0,
		Children:    []TreeNode{},
	}
	if level < TreeLevelContainers {
		return node
	}

	node.Children = append(node.Children, SummaryNode{
		Type:           NodeTypeSummary,
		ServerID:       srv.ID,
		CPUUsage:       srv.CPUUsage,
		MemoryUsage:    srv.MemoryUsage,
		DiskUsage:      srv.DiskUsage,
		ContainerCount: len(srv.Containers),
		GPUCount:       len(srv.GPUs),
	})

	for _, c := range srv.Containers {
		sort.Slice(c.PortMappings, func(i, j int) bool {
			return c.PortMappings[i].ContainerPort < c.PortMappings[j].ContainerPort
		})
		services := c.Services
		c.Services = nil // services render as child nodes, not inline

		cn := ContainerNode{
			Type: NodeTypeContainer,
			ContainerView: ContainerView{
				Container:    c,
				PortMappings: NewPortMappingViews(c.PortMappings, srv.InternalIP),
				ServiceCount: len(services),
			},
		}
		if level >= TreeLevelServices {
			cn.Children = make([]TreeNode, 0, len(services))
			for _, svc := range services {
				cn.Children = append(cn.Children, ServiceNode{Type: NodeTypeService, Service: svc})
			}
		}
		node.Children = append(node.Children, cn)
	}

	for _, g := range srv.GPUs {
		node.Children = append(node.Children, GPUNode{Type: NodeTypeGPU, GPUView: NewGPUView(g)})
	}
	return node
}
