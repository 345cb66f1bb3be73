package systems

import (
	"github.com/spaghettifunk/anima-instancing/engine/resources"
)

type SystemManagerConfig struct {
	Workers        int
	JobQueueSize   int
	MaxEffectCount uint32
	Resources      ResourceSystemConfig
}

type SystemManager struct {
	JobSystem      *JobSystem
	ResourceSystem *ResourceSystem
	EffectSystem   *EffectSystem
}

func NewSystemManager(config *SystemManagerConfig, assets AssetSource, backend resources.Backend) (*SystemManager, error) {
	js, err := NewJobSystem(config.Workers, config.JobQueueSize)
	if err != nil {
		return nil, err
	}
	rs, err := NewResourceSystem(&config.Resources, js, assets, backend)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	es, err := NewEffectSystem(&EffectSystemConfig{
		MaxEffectCount: config.MaxEffectCount,
	})
	if err != nil {
		rs.Shutdown()
		js.Shutdown()
		return nil, err
	}
	return &SystemManager{
		JobSystem:      js,
		ResourceSystem: rs,
		EffectSystem:   es,
	}, nil
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.EffectSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.ResourceSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
