package vector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Manifest records which embedder produced the stored vectors. It lives next
// to the vector data and guards against querying vectors from one model with
// embeddings from another.
type Manifest struct {
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	CreatedAt  time.Time `json:"created_at"`
}

// LoadManifest reads the manifest at path. A missing file returns (nil, nil).
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Save writes the manifest to path, creating parent directories. The write
// goes through a temp file and rename so a crash cannot leave a torn file.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// ReconcileManifest checks the manifest at path against the configured
// embedder identity. With stored vectors present, a different model is fatal
// (ErrModelChanged). An absent manifest or an empty store adopts the current
// embedder and rewrites the manifest.
func ReconcileManifest(path, model string, dimensions, storedCount int) (*Manifest, error) {
	existing, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	if existing != nil && storedCount > 0 {
		if existing.Model != model {
			return nil, fmt.Errorf("%w: store was built with %q but config selects %q; delete the data directory and re-ingest",
				ErrModelChanged, existing.Model, model)
		}
		if existing.Dimensions != dimensions {
			return nil, fmt.Errorf("%w: store has %d-dimensional vectors but config wants %d; delete the data directory and re-ingest",
				ErrDimensionMismatch, existing.Dimensions, dimensions)
		}
		return existing, nil
	}

	m := &Manifest{Model: model, Dimensions: dimensions, CreatedAt: time.Now().UTC()}
	if err := m.Save(path); err != nil {
		return nil, err
	}
	return m, nil
}
