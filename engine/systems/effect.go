package systems

import (
	"fmt"
	"maps"

	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

type EffectSystemConfig struct {
	MaxEffectCount uint32
}

type effectReference struct {
	effect   *metadata.Effect
	refCount uint32
	// built-in effects are never destroyed
	builtin bool
}

/**
 * @brief Registry of effects by name. Areas and batches hold pointers handed
 * out here, so an effect stays at the same address until its last release.
 */
type EffectSystem struct {
	config  EffectSystemConfig
	ids     *core.IdentifierPool
	effects map[string]*effectReference
}

func NewEffectSystem(config *EffectSystemConfig) (*EffectSystem, error) {
	if config.MaxEffectCount == 0 {
		return nil, fmt.Errorf("effect system max effect count must be greater than 0")
	}
	es := &EffectSystem{
		config:  *config,
		ids:     core.NewIdentifierPool(int(config.MaxEffectCount)),
		effects: make(map[string]*effectReference),
	}
	for _, name := range []string{metadata.DepthEffectName, metadata.PickingEffectName} {
		if _, err := es.create(name, name, nil, true); err != nil {
			return nil, err
		}
	}
	return es, nil
}

// Acquire returns the effect with the given name, creating it on first use.
// An existing effect keeps its shader and parameters.
func (es *EffectSystem) Acquire(name, shaderName string, parameters map[string][]float32) (*metadata.Effect, error) {
	if name == "" {
		return nil, fmt.Errorf("effect name cannot be empty")
	}
	if ref, ok := es.effects[name]; ok {
		ref.refCount++
		return ref.effect, nil
	}
	return es.create(name, shaderName, parameters, false)
}

func (es *EffectSystem) create(name, shaderName string, parameters map[string][]float32, builtin bool) (*metadata.Effect, error) {
	if uint32(len(es.effects)) >= es.config.MaxEffectCount {
		return nil, fmt.Errorf("effect system is full (%d effects), cannot create '%s'", es.config.MaxEffectCount, name)
	}
	effect := &metadata.Effect{
		Name:       name,
		ShaderName: shaderName,
		Parameters: maps.Clone(parameters),
	}
	effect.ID = es.ids.Acquire(effect)
	es.effects[name] = &effectReference{effect: effect, refCount: 1, builtin: builtin}
	core.LogDebug("effect '%s' created with id %d", name, effect.ID)
	return effect, nil
}

// Get returns the named effect without taking a reference.
func (es *EffectSystem) Get(name string) *metadata.Effect {
	if ref, ok := es.effects[name]; ok {
		return ref.effect
	}
	return nil
}

func (es *EffectSystem) Release(name string) {
	ref, ok := es.effects[name]
	if !ok || ref.builtin {
		return
	}
	if ref.refCount > 0 {
		ref.refCount--
	}
	if ref.refCount == 0 {
		if err := es.ids.Release(ref.effect.ID); err != nil {
			core.LogWarn(err.Error())
		}
		delete(es.effects, name)
	}
}

func (es *EffectSystem) Count() int {
	return len(es.effects)
}

func (es *EffectSystem) Shutdown() error {
	clear(es.effects)
	return nil
}
