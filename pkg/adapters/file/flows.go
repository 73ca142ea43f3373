package file

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
)

// defaultTenant names the directory of flows that belong to no tenant.
const defaultTenant = "_default"

// FlowRepository implements ports.FlowRepository using the local filesystem.
// Each flow is a record file at <base>/<tenant>/<name>.<ext>, where ext is
// json or yaml.
type FlowRepository struct {
	BasePath string
	Format   codec.Format
}

// NewFlowRepository creates a repository rooted at basePath.
// If basePath is empty, it defaults to ".chatflow/flows".
func NewFlowRepository(basePath string, format codec.Format) *FlowRepository {
	if basePath == "" {
		basePath = filepath.Join(".chatflow", "flows")
	}
	if format == "" {
		format = codec.FormatJSON
	}
	return &FlowRepository{BasePath: basePath, Format: format}
}

func (r *FlowRepository) dir(tenant string) string {
	if tenant == "" {
		tenant = defaultTenant
	}
	return filepath.Join(r.BasePath, url.PathEscape(tenant))
}

func (r *FlowRepository) path(tenant, name string) string {
	return filepath.Join(r.dir(tenant), url.PathEscape(name)+"."+string(r.Format))
}

// Get loads and parses the flow's record file.
func (r *FlowRepository) Get(ctx context.Context, tenant, name string) (*domain.Flow, error) {
	data, err := os.ReadFile(r.path(tenant, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrFlowNotFound
		}
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	f, err := codec.Unmarshal(data, r.Format)
	if err != nil {
		return nil, fmt.Errorf("flow %q: %w", name, err)
	}
	f.Tenant = tenant
	return f, nil
}

// Put replaces the flow's record file atomically.
func (r *FlowRepository) Put(ctx context.Context, f *domain.Flow) error {
	data, err := codec.Marshal(f, r.Format)
	if err != nil {
		return fmt.Errorf("failed to encode flow %q: %w", f.Name, err)
	}
	return writeAtomic(r.path(f.Tenant, f.Name), data)
}

// Delete removes the flow's record file.
func (r *FlowRepository) Delete(ctx context.Context, tenant, name string) error {
	if err := removeIfExists(r.path(tenant, name)); err != nil {
		return fmt.Errorf("failed to delete flow file: %w", err)
	}
	return nil
}

// List parses every record file of the tenant.
func (r *FlowRepository) List(ctx context.Context, tenant string) ([]*domain.Flow, error) {
	entries, err := os.ReadDir(r.dir(tenant))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read flows directory: %w", err)
	}

	ext := "." + string(r.Format)
	var flows []*domain.Flow
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) || strings.HasPrefix(name, "tmp-") {
			continue
		}
		flowName, err := url.PathUnescape(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		f, err := r.Get(ctx, tenant, flowName)
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].Name < flows[j].Name })
	return flows, nil
}
