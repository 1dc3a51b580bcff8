// Package catalog maps logical camera identifiers to their video sources.
// The catalog is static: loaded once at startup and never mutated.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NotFoundError reports an unknown camera id or a source file that does
// not exist on disk.
type NotFoundError struct {
	What string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.ID)
}

// Camera is one configured feed. Source is a filename relative to the
// video directory, or an absolute URL. AssetID, when set, is the remote
// asset this source was previously indexed as.
type Camera struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Source   string `json:"source"`
	AssetID  string `json:"asset_id,omitempty"`
	HasFeed  bool   `json:"has_feed"`
}

// defaultCameras mirrors the transit deployment the service was built for.
// Cameras without a feed exist for map display only and are skipped by
// the analysis sweep.
var defaultCameras = []Camera{
	{ID: "cam-1", Name: "Downtown — Yonge-Dundas", Location: "1 Dundas St E", Source: "downtown.mp4", HasFeed: true},
	{ID: "cam-2", Name: "Incident 1 — Streetcar Front", Location: "Streetcar 505 (Front Cam)", Source: "incident1.mp4", HasFeed: true},
	{ID: "cam-3", Name: "Incident 2 — Streetcar Back", Location: "Streetcar 505 (Back Cam)", Source: "incident2.mp4", HasFeed: true},
	{ID: "cam-4", Name: "Yorkdale Bus Terminal", Location: "1 Yorkdale Rd", Source: "incident3.mp4", HasFeed: true},
	{ID: "cam-5", Name: "Downtown North", Location: "Yonge & Dundas Square", Source: "downtown2.mp4", HasFeed: true},
	{ID: "cam-6", Name: "Downtown South", Location: "Union Station Area", Source: "downtown3.mp4", HasFeed: true},
	{ID: "cam-7", Name: "Downtown West", Location: "Queen & Spadina", Source: "downtown4.mp4", HasFeed: true},
	{ID: "cam-8", Name: "Scarborough Transit Hub", Location: "Kennedy Station Area", Source: "fake1.mp4", HasFeed: false},
	{ID: "cam-9", Name: "Etobicoke Civic Center", Location: "399 The West Mall", Source: "fake2.mp4", HasFeed: false},
}

// Catalog resolves camera ids to sources. VideoDir is joined in front of
// relative source filenames.
type Catalog struct {
	videoDir string
	cameras  []Camera
	byID     map[string]*Camera
}

// Load builds the catalog from the seed file at path, or from built-in
// defaults when path is empty. A seed file that maps one camera id twice,
// or the same id to two different sources, is rejected.
func Load(path, videoDir string) (*Catalog, error) {
	cameras := defaultCameras
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read camera seed file: %w", err)
		}
		var loaded []Camera
		if err := json.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("parse camera seed file: %w", err)
		}
		cameras = loaded
	}

	byID := make(map[string]*Camera, len(cameras))
	out := make([]Camera, len(cameras))
	copy(out, cameras)

	for i := range out {
		cam := &out[i]
		if cam.ID == "" {
			return nil, fmt.Errorf("camera %d has no id", i)
		}
		if cam.Source == "" {
			return nil, fmt.Errorf("camera %s has no source", cam.ID)
		}
		if existing, ok := byID[cam.ID]; ok {
			return nil, fmt.Errorf("camera %s mapped to both %s and %s", cam.ID, existing.Source, cam.Source)
		}
		byID[cam.ID] = cam
	}

	return &Catalog{videoDir: videoDir, cameras: out, byID: byID}, nil
}

// Resolve returns the camera for a logical id.
func (c *Catalog) Resolve(cameraID string) (*Camera, error) {
	cam, ok := c.byID[cameraID]
	if !ok {
		return nil, &NotFoundError{What: "camera", ID: cameraID}
	}
	return cam, nil
}

// Cameras returns every configured camera in declaration order.
func (c *Catalog) Cameras() []Camera {
	return c.cameras
}

// FeedCameras returns only cameras with an analyzable feed.
func (c *Catalog) FeedCameras() []Camera {
	var out []Camera
	for _, cam := range c.cameras {
		if cam.HasFeed {
			out = append(out, cam)
		}
	}
	return out
}

// SourcePath returns the on-disk path for a camera's source, verifying
// the file exists. URLs pass through untouched.
func (c *Catalog) SourcePath(cam *Camera) (string, error) {
	if IsURL(cam.Source) {
		return cam.Source, nil
	}
	path := cam.Source
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.videoDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", &NotFoundError{What: "video file", ID: path}
	}
	return path, nil
}

// IsURL reports whether a video source is a remote URL rather than a
// local file path.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
