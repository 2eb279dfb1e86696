package model

const (
	AssetKindImage = "image"
	AssetKindText  = "text"
)

type Material struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Type  string `json:"type" db:"type"`   // Free-form category ("poster", "flyer", ...)
	Image string `json:"image" db:"image"` // Asset filename, relative to the catalog area
	Text  string `json:"text" db:"text"`   // Optional text variant of the asset
}

// Asset returns the filename of the requested asset kind, or "" when the
// material has no such asset.
func (m *Material) Asset(kind string) string {
	switch kind {
	case AssetKindImage:
		return m.Image
	case AssetKindText:
		return m.Text
	}
	return ""
}

// ValidAssetKind reports whether kind names one of the material's asset variants.
func ValidAssetKind(kind string) bool {
	return kind == AssetKindImage || kind == AssetKindText
}
