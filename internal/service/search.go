package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

// SearchType classifies what a free-text query looks like.
type SearchType string

const (
	SearchTypeIP      SearchType = "ip"
	SearchTypePort    SearchType = "port"
	SearchTypeKeyword SearchType = "keyword"
)

// DefaultSearchLimit caps results per entity bucket when the caller
// does not supply a limit.
const DefaultSearchLimit = 50

// MinSuggestLen is the minimum query length for quick suggestions.
const MinSuggestLen = 2

// ipPattern accepts up to four groups of up to three digits joined by
// dots. Partial prefixes like "192.168" or "10." match on purpose: the
// IP branch is a prefix search, not an address validator.
var ipPattern = regexp.MustCompile(`^(\d{1,3}\.){0,3}\d{0,3}$`)

// Classify decides which dispatch branch a query takes: ip-looking
// strings first, then integers in the port range, everything else is a
// keyword (including out-of-range numbers like "70000").
func Classify(keyword string) SearchType {
	if keyword != "" && ipPattern.MatchString(keyword) {
		return SearchTypeIP
	}
	if port, err := strconv.Atoi(keyword); err == nil && port >= 1 && port <= 65535 {
		return SearchTypePort
	}
	return SearchTypeKeyword
}

// SearchResult is the merged multi-entity response. Buckets the branch
// does not search stay empty, never nil.
type SearchResult struct {
	SearchType   SearchType        `json:"search_type"`
	Servers      []ServerView      `json:"servers"`
	Containers   []ContainerView   `json:"containers"`
	Services     []models.Service  `json:"services"`
	PortMappings []PortMappingView `json:"port_mappings"`
	Total        int               `json:"total"`
}

// Suggestion is one quick-search row for autocomplete.
type Suggestion struct {
	Type     string `json:"type"` // server, container
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Subtitle string `json:"subtitle"`
}

// SearchService classifies a query and fans it out across entity types.
type SearchService struct {
	db *gorm.DB
}

// NewSearchService creates a new SearchService.
func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// Search runs the classified query, capping each bucket at limit.
func (s *SearchService) Search(keyword string, limit int) (*SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	result := &SearchResult{
		Servers:      []ServerView{},
		Containers:   []ContainerView{},
		Services:     []models.Service{},
		PortMappings: []PortMappingView{},
	}

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		result.SearchType = SearchTypeKeyword
		return result, nil
	}

	result.SearchType = Classify(keyword)
	var err error
	switch result.SearchType {
	case SearchTypeIP:
		err = s.searchByIP(keyword, limit, result)
	case SearchTypePort:
		port, _ := strconv.Atoi(keyword)
		err = s.searchByPort(port, limit, result)
	default:
		err = s.searchByKeyword(keyword, limit, result)
	}
	if err != nil {
		return nil, err
	}

	result.Total = len(result.Servers) + len(result.Containers) +
		len(result.Services) + len(result.PortMappings)
	return result, nil
}

// searchByIP matches server and port-mapping addresses by substring.
// Containers and services carry no addresses and are skipped.
func (s *SearchService) searchByIP(keyword string, limit int, result *SearchResult) error {
	kw := "%" + keyword + "%"

	var servers []models.Server
	if err := s.db.
		Where("internal_ip LIKE ? OR external_ip LIKE ?", kw, kw).
		Preload("Datacenter").Preload("Environment").
		Limit(limit).Find(&servers).Error; err != nil {
		return err
	}
	for _, srv := range servers {
		result.Servers = append(result.Servers, NewServerView(srv))
	}

	return s.appendPortMappings(result,
		s.db.Where("internal_ip LIKE ? OR external_ip LIKE ?", kw, kw).Limit(limit))
}

// searchByPort matches exact port numbers across the three mapping
// tiers, service ports, and server SSH ports.
func (s *SearchService) searchByPort(port, limit int, result *SearchResult) error {
	if err := s.appendPortMappings(result,
		s.db.Where("container_port = ? OR internal_port = ? OR external_port = ?", port, port, port).Limit(limit)); err != nil {
		return err
	}

	if err := s.db.
		Where("port = ?", port).
		Preload("Container").Preload("Owner").
		Limit(limit).Find(&result.Services).Error; err != nil {
		return err
	}

	var servers []models.Server
	if err := s.db.
		Where("ssh_port = ?", port).
		Preload("Datacenter").Preload("Environment").
		Limit(limit).Find(&servers).Error; err != nil {
		return err
	}
	for _, srv := range servers {
		result.Servers = append(result.Servers, NewServerView(srv))
	}
	return nil
}

// searchByKeyword matches names and descriptions by substring. Port
// mappings have no meaningful text and are skipped.
func (s *SearchService) searchByKeyword(keyword string, limit int, result *SearchResult) error {
	kw := "%" + keyword + "%"

	var servers []models.Server
	if err := s.db.
		Where("name LIKE ? OR responsible_person LIKE ? OR description LIKE ?", kw, kw, kw).
		Preload("Datacenter").Preload("Environment").
		Limit(limit).Find(&servers).Error; err != nil {
		return err
	}
	for _, srv := range servers {
		result.Servers = append(result.Servers, NewServerView(srv))
	}

	var containers []models.Container
	if err := s.db.
		Where("name LIKE ? OR image LIKE ? OR description LIKE ?", kw, kw, kw).
		Preload("Server").Preload("Owner").Preload("PortMappings").
		Limit(limit).Find(&containers).Error; err != nil {
		return err
	}
	result.Containers = append(result.Containers, NewContainerViews(containers)...)

	return s.db.
		Where("name LIKE ? OR service_type LIKE ? OR description LIKE ?", kw, kw, kw).
		Preload("Container").Preload("Owner").
		Limit(limit).Find(&result.Services).Error
}

func (s *SearchService) appendPortMappings(result *SearchResult, query *gorm.DB) error {
	var mappings []models.PortMapping
	if err := query.Preload("Container").Preload("Container.Server").Find(&mappings).Error; err != nil {
		return err
	}
	for _, pm := range mappings {
		serverIP := ""
		if pm.Container != nil && pm.Container.Server != nil {
			serverIP = pm.Container.Server.InternalIP
		}
		result.PortMappings = append(result.PortMappings, NewPortMappingView(pm, serverIP))
	}
	return nil
}

// QuickSearch returns a flat suggestion list over server and container
// names for autocomplete. Queries shorter than MinSuggestLen return
// nothing.
func (s *SearchService) QuickSearch(keyword string, limit int) ([]Suggestion, error) {
	keyword = strings.TrimSpace(keyword)
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	suggestions := []Suggestion{}
	if len(keyword) < MinSuggestLen {
		return suggestions, nil
	}
	kw := "%" + keyword + "%"

	var servers []models.Server
	if err := s.db.Where("name LIKE ?", kw).Preload("Datacenter").Limit(limit).Find(&servers).Error; err != nil {
		return nil, err
	}
	for _, srv := range servers {
		dcName := ""
		if srv.Datacenter != nil {
			dcName = srv.Datacenter.Name
		}
		suggestions = append(suggestions, Suggestion{
			Type:     "server",
			ID:       srv.ID,
			Name:     srv.Name,
			Subtitle: fmt.Sprintf("%s - %s", srv.InternalIP, dcName),
		})
	}

	var containers []models.Container
	if err := s.db.Where("name LIKE ?", kw).Preload("Server").Limit(limit).Find(&containers).Error; err != nil {
		return nil, err
	}
	for _, c := range containers {
		srvName := ""
		if c.Server != nil {
			srvName = c.Server.Name
		}
		suggestions = append(suggestions, Suggestion{
			Type:     "container",
			ID:       c.ID,
			Name:     c.Name,
			Subtitle: fmt.Sprintf("on %s", srvName),
		})
	}

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}
