package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima-instancing/engine/assets/loaders"
	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

/**
 * @brief Indexes the asset directory, owns the loaders and reports files
 * changed on disk so resources can be reloaded.
 */
type AssetManager struct {
	basePath string
	assets   map[string]AssetInfo
	loaders  map[metadata.ResourceType]Loader
	changed  map[string]struct{}

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	started  bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		changed:  make(map[string]struct{}),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	am.RegisterLoader(metadata.ResourceTypeGeometry, &loaders.GeometryLoader{})
	am.RegisterLoader(metadata.ResourceTypeInstanceData, &loaders.InstanceDataLoader{})
	return am, nil
}

// Initialize indexes assetsDir and starts watching it.
func (am *AssetManager) Initialize(assetsDir string) error {
	abs, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.basePath = abs

	if err := am.watchRecursive(abs); err != nil {
		return err
	}
	am.started = true
	go am.start()

	core.LogInfo("asset manager watching '%s'", abs)
	return nil
}

func (am *AssetManager) BasePath() string {
	return am.basePath
}

// RegisterLoader sets the loader for an asset type, replacing any previous one.
func (am *AssetManager) RegisterLoader(assetType metadata.ResourceType, loader Loader) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.loaders[assetType] = loader
}

// FullPath resolves an asset path against the base directory.
func (am *AssetManager) FullPath(path string) string {
	if filepath.IsAbs(path) || am.basePath == "" {
		return path
	}
	return filepath.Join(am.basePath, path)
}

// LoadAsset parses the asset at path with the loader registered for its
// type. It is safe to call from job workers.
func (am *AssetManager) LoadAsset(path string, params interface{}) (*metadata.Resource, error) {
	assetType := ResourceTypeForPath(path)
	am.mutex.RLock()
	loader, exists := am.loaders[assetType]
	am.mutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s (%s)", core.ErrNoLoader, path, assetType)
	}

	full := am.FullPath(path)
	if _, err := os.Stat(full); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrResourceNotFound, path)
	}
	res, err := loader.Load(full, assetType, params)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[am.relative(full)] = AssetInfo{Path: path, Type: assetType, LastLoaded: time.Now()}
	am.mutex.Unlock()
	return res, nil
}

func (am *AssetManager) UnloadAsset(res *metadata.Resource) error {
	if res == nil {
		return nil
	}
	am.mutex.RLock()
	loader, exists := am.loaders[res.Type]
	am.mutex.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", core.ErrNoLoader, res.Type)
	}
	return loader.Unload(res)
}

// Asset returns the index entry for a relative path.
func (am *AssetManager) Asset(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.Clean(path)]
	return info, ok
}

// DrainChanged returns the relative paths of known assets written since the
// previous call, sorted.
func (am *AssetManager) DrainChanged() []string {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if len(am.changed) == 0 {
		return nil
	}
	out := make([]string, 0, len(am.changed))
	for p := range am.changed {
		out = append(out, p)
	}
	clear(am.changed)
	sort.Strings(out)
	return out
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	if am.started {
		<-am.stopped
		return nil
	}
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&fsnotify.Create != 0 {
				if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("cannot watch '%s': %s", e.Name, err)
					}
					continue
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name, true)
			}
			// a removed directory cannot be stat'ed, so always try to unwatch
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds dir and its sub-directories to the watch list and
// indexes the files found.
func (am *AssetManager) watchRecursive(dir string) error {
	return filepath.Walk(dir, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath, false)
		return nil
	})
}

func (am *AssetManager) relative(path string) string {
	if am.basePath == "" {
		return filepath.Clean(path)
	}
	if rel, err := filepath.Rel(am.basePath, path); err == nil {
		return rel
	}
	return filepath.Clean(path)
}

func (am *AssetManager) handleFileEvent(path string, modified bool) {
	assetType := ResourceTypeForPath(path)
	if assetType == metadata.ResourceTypeNone {
		return
	}
	rel := am.relative(path)

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info := am.assets[rel]
	info.Path = rel
	info.Type = assetType
	am.assets[rel] = info
	if modified {
		am.changed[rel] = struct{}{}
	}
}

func (am *AssetManager) removeAsset(path string) {
	rel := am.relative(path)
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, rel)
	delete(am.changed, rel)
}

// ResourceTypeForPath maps a file extension to the resource type it holds.
func ResourceTypeForPath(path string) metadata.ResourceType {
	switch filepath.Ext(path) {
	case ".geom":
		return metadata.ResourceTypeGeometry
	case ".inst":
		return metadata.ResourceTypeInstanceData
	default:
		return metadata.ResourceTypeNone
	}
}
