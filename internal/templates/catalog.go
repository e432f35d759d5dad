package templates

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wolfman30/creator-sales-engine/internal/chatterplan"
	"github.com/wolfman30/creator-sales-engine/internal/drafting"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Catalog holds template pools per usage tag.
type Catalog map[chatterplan.Usage]drafting.Pools

type catalogFile struct {
	Usages map[string]drafting.Pools `yaml:"usages"`
}

// Parse decodes a YAML catalog. Unknown usage tags are rejected.
func Parse(data []byte) (Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("templates: parse yaml: %w", err)
	}
	out := make(Catalog, len(file.Usages))
	for raw, pools := range file.Usages {
		usage, ok := chatterplan.ParseUsage(raw)
		if !ok {
			return nil, fmt.Errorf("templates: %w: %q", ErrUnknownUsage, raw)
		}
		out[usage] = pools
	}
	return out, nil
}

var (
	defaultsOnce sync.Once
	defaults     Catalog
	defaultsErr  error
)

// Defaults returns the embedded catalog. Callers get a copy.
func Defaults() (Catalog, error) {
	defaultsOnce.Do(func() {
		defaults, defaultsErr = Parse(defaultsYAML)
	})
	if defaultsErr != nil {
		return nil, defaultsErr
	}
	return defaults.clone(), nil
}

// Load returns the embedded defaults with any usages from the YAML file at
// path layered on top. An empty path returns the defaults.
func Load(path string) (Catalog, error) {
	base, err := Defaults()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("templates: read %s: %w", path, err)
	}
	override, err := Parse(data)
	if err != nil {
		return nil, err
	}
	for usage, pools := range override {
		base[usage] = pools
	}
	return base, nil
}

// Pools returns the pools for usage and whether the catalog has them.
func (c Catalog) Pools(usage chatterplan.Usage) (drafting.Pools, bool) {
	pools, ok := c[usage]
	if !ok || pools.Empty() {
		return drafting.Pools{}, false
	}
	return pools, true
}

// Usages lists the usage tags in the catalog, sorted.
func (c Catalog) Usages() []chatterplan.Usage {
	out := make([]chatterplan.Usage, 0, len(c))
	for u := range c {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c Catalog) clone() Catalog {
	out := make(Catalog, len(c))
	for usage, pools := range c {
		out[usage] = drafting.Pools{
			Openers: append([]string(nil), pools.Openers...),
			Bridges: append([]string(nil), pools.Bridges...),
			Teases:  append([]string(nil), pools.Teases...),
			CTAs:    append([]string(nil), pools.CTAs...),
		}
	}
	return out
}
