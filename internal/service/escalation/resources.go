package escalation

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/mental-buddy/backend/internal/model/lookup"
)

//go:embed resources.yaml
var defaultResourcesYAML []byte

var ErrInvalidResourceTable = errors.New("invalid crisis resource table")

// Resource 是某个地区的危机求助资源。
type Resource struct {
	Name              string `yaml:"name" json:"name,omitempty"`
	SuicidePrevention string `yaml:"suicide_prevention" json:"suicidePrevention,omitempty"`
	TalkSuicide       string `yaml:"talk_suicide" json:"talkSuicide,omitempty"`
	CrisisText        string `yaml:"crisis_text" json:"crisisText,omitempty"`
	URL               string `yaml:"url" json:"url,omitempty"`
}

// CrisisLine 优先返回 suicide_prevention，其次 talk_suicide。
func (r Resource) CrisisLine() lookup.Resolution[string] {
	if r.SuicidePrevention != "" {
		return lookup.NewFound(r.SuicidePrevention)
	}
	if r.TalkSuicide != "" {
		return lookup.NewFallback(r.TalkSuicide)
	}
	return lookup.NewUnresolved[string]()
}

// ResourceTable 是按地区编码索引的资源表。
type ResourceTable struct {
	Emergency       string              `yaml:"emergency" json:"emergency"`
	DefaultLocation string              `yaml:"default_location" json:"defaultLocation"`
	Locations       map[string]Resource `yaml:"locations" json:"locations"`
}

// DefaultResourceTable parses the embedded table.
func DefaultResourceTable() *ResourceTable {
	table, err := ParseResourceTable(defaultResourcesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded crisis resources: %v", err))
	}
	return table
}

// LoadResourceTable 从文件加载资源表；path 为空时使用内置表。
func LoadResourceTable(path string) (*ResourceTable, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultResourceTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crisis resources %s: %w", path, err)
	}
	return ParseResourceTable(data)
}

// ParseResourceTable decodes and validates a YAML resource table.
func ParseResourceTable(data []byte) (*ResourceTable, error) {
	var table ResourceTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decode crisis resources: %w", err)
	}

	normalized := make(map[string]Resource, len(table.Locations))
	for code, res := range table.Locations {
		normalized[normalizeCode(code)] = res
	}
	table.Locations = normalized
	table.DefaultLocation = normalizeCode(table.DefaultLocation)

	if strings.TrimSpace(table.Emergency) == "" {
		return nil, fmt.Errorf("%w: emergency number is required", ErrInvalidResourceTable)
	}
	if _, ok := table.Locations[table.DefaultLocation]; !ok {
		return nil, fmt.Errorf("%w: default location %q has no entry", ErrInvalidResourceTable, table.DefaultLocation)
	}
	return &table, nil
}

// Lookup 返回请求地区的资源；缺失时回退到默认地区。
func (t *ResourceTable) Lookup(code string) lookup.Resolution[Resource] {
	if res, ok := t.Locations[normalizeCode(code)]; ok {
		return lookup.NewFound(res)
	}
	if res, ok := t.Locations[t.DefaultLocation]; ok {
		return lookup.NewFallback(res)
	}
	return lookup.NewUnresolved[Resource]()
}

// Codes returns the location codes in sorted order.
func (t *ResourceTable) Codes() []string {
	codes := make([]string, 0, len(t.Locations))
	for code := range t.Locations {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
