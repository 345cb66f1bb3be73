package assets

import "github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"

// Loader parses one asset file. Loaders run on job workers and must not touch
// renderer state.
type Loader interface {
	Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error)
	Unload(*metadata.Resource) error
}
