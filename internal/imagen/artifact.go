package imagen

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArtifactName builds the local filename for a generated image:
// scene_<id zero-padded to width 3>_<epoch-millis>.png. The millisecond
// timestamp keeps names unique when the same scene id recurs across runs.
func ArtifactName(sceneID string, now time.Time) string {
	return fmt.Sprintf("scene_%s_%d.png", padID(sceneID, 3), now.UnixMilli())
}

// padID left-pads with zeros to the given width; longer ids pass through.
func padID(id string, width int) string {
	for len(id) < width {
		id = "0" + id
	}
	return id
}

// SaveArtifact writes image bytes under dir/name, creating dir if absent.
// Returns the artifact path. Saved artifacts are never cleaned up; they act
// as a recovery cache across runs.
func SaveArtifact(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save artifact: %w", err)
	}
	return path, nil
}
