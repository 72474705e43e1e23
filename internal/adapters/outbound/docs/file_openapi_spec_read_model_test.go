package docs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileOpenAPISpecReadModelContentTypes(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "openapi.yaml")
	jsonPath := filepath.Join(dir, "openapi.JSON")
	require.NoError(t, os.WriteFile(yamlPath, []byte("openapi: 3.0.3\n"), 0o600))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"openapi":"3.0.3"}`), 0o600))

	content, contentType, appErr := NewFileOpenAPISpecReadModel(yamlPath).Read(context.Background())
	require.Nil(t, appErr)
	assert.Equal(t, "openapi: 3.0.3\n", string(content))
	assert.Equal(t, "application/yaml; charset=utf-8", contentType)

	_, contentType, appErr = NewFileOpenAPISpecReadModel(jsonPath).Read(context.Background())
	require.Nil(t, appErr)
	assert.Equal(t, "application/json; charset=utf-8", contentType)

	_, _, appErr = NewFileOpenAPISpecReadModel(filepath.Join(dir, "missing.yaml")).Read(context.Background())
	require.NotNil(t, appErr)
	assert.Equal(t, "OPENAPI_FILE_READ_FAILED", appErr.Code)
}
