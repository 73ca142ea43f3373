package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/chatflow/pkg/adapters/file"
	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionStore_Contract(t *testing.T) {
	ports.RunPositionStoreContract(t, file.NewPositionStore(t.TempDir()))
}

func TestFlowRepository_Contract(t *testing.T) {
	for _, format := range []codec.Format{codec.FormatJSON, codec.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			ports.RunFlowRepositoryContract(t, file.NewFlowRepository(t.TempDir(), format))
		})
	}
}

func TestPositionStore_EscapesConversationIDs(t *testing.T) {
	dir := t.TempDir()
	store := file.NewPositionStore(dir)
	ctx := context.Background()

	id := "whatsapp:+55/11"
	require.NoError(t, store.Save(ctx, domain.NewPosition(id, "", "orders", "start")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestPositionStore_ListMissingDir(t *testing.T) {
	store := file.NewPositionStore(filepath.Join(t.TempDir(), "nope"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFlowRepository_LayoutAndCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	repo := file.NewFlowRepository(dir, codec.FormatYAML)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, ports.ContractFlow("", "orders")))
	assert.FileExists(t, filepath.Join(dir, "_default", "orders.yaml"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "_default", "broken.yaml"), []byte("nodes: [{id: x, type: buttons, data: {}}]"), 0o644))
	_, err := repo.Get(ctx, "", "broken")
	assert.Error(t, err)
	_, err = repo.List(ctx, "")
	assert.Error(t, err)
}
