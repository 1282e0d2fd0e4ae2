package service

import "github.com/rackmind/rackmind/internal/models"

// PortMappingView is the read shape of a port mapping. The resolved
// addresses and the mapping chain are recomputed on every serialization
// from the current parent-server IP; they are never stored.
type PortMappingView struct {
	models.PortMapping
	InternalAddress string  `json:"internal_address"`
	ExternalAddress *string `json:"external_address"`
	MappingChain    string  `json:"mapping_chain"`
}

// NewPortMappingView resolves the three-tier chain for one mapping.
// serverIP is the parent server's internal IP, used as fallback host.
func NewPortMappingView(pm models.PortMapping, serverIP string) PortMappingView {
	v := PortMappingView{
		PortMapping:     pm,
		InternalAddress: pm.InternalAddress(serverIP),
		MappingChain:    pm.MappingChain(serverIP),
	}
	if ext, ok := pm.ExternalAddress(); ok {
		v.ExternalAddress = &ext
	}
	return v
}

// NewPortMappingViews resolves a mapping list against one server IP.
func NewPortMappingViews(pms []models.PortMapping, serverIP string) []PortMappingView {
	views := make([]PortMappingView, 0, len(pms))
	for _, pm := range pms {
		views = append(views, NewPortMappingView(pm, serverIP))
	}
	return views
}

// ServerView is the read shape of a server.
type ServerView struct {
	models.Server
	SSHCommand     string `json:"ssh_command"`
	ContainerCount int    `json:"container_count"`
	GPUCount       int    `json:"gpu_count"`
}

// NewServerView derives the read shape; counts come from the loaded
// children when present.
func NewServerView(s models.Server) ServerView {
	return ServerView{
		Server:         s,
		SSHCommand:     s.SSHCommand(),
		ContainerCount: len(s.Containers),
		GPUCount:       len(s.GPUs),
	}
}

// ContainerView is the read shape of a container: its port mappings are
// replaced with resolved views.
type ContainerView struct {
	models.Container
	PortMappings []PortMappingView `json:"port_mappings"`
	ServiceCount int               `json:"service_count"`
}

// NewContainerView resolves the container's port mappings against its
// (preloaded) parent server.
func NewContainerView(c models.Container) ContainerView {
	serverIP := ""
	if c.Server != nil {
		serverIP = c.Server.InternalIP
	}
	return ContainerView{
		Container:    c,
		PortMappings: NewPortMappingViews(c.PortMappings, serverIP),
		ServiceCount: len(c.Services),
	}
}

// NewContainerViews maps a container list to views.
func NewContainerViews(cs []models.Container) []ContainerView {
	views := make([]ContainerView, 0, len(cs))
	for _, c := range cs {
		views = append(views, NewContainerView(c))
	}
	return views
}

// GPUView is the read shape of a GPU card.
type GPUView struct {
	models.GPU
	IsAvailable bool `json:"is_available"`
}

// NewGPUView derives the read shape.
func NewGPUView(g models.GPU) GPUView {
	return GPUView{GPU: g, IsAvailable: g.IsAvailable()}
}

// NewGPUViews maps a GPU list to views.
func NewGPUViews(gs []models.GPU) []GPUView {
	views := make([]GPUView, 0, len(gs))
	for _, g := range gs {
		views = append(views, NewGPUView(g))
	}
	return views
}
