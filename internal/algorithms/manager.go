// Package algorithms registers the filter steps by name and builds
// processing chains from recipes.
package algorithms

import (
	"fmt"
	"sort"
	"sync"

	"intensity-lab/internal/config"
	"intensity-lab/internal/models"
	"intensity-lab/internal/processing/chain"
)

type Manager struct {
	algorithms map[string]Algorithm
	parameters map[string]map[string]interface{}
	mu         sync.RWMutex
}

func NewManager() *Manager {
	manager := &Manager{
		algorithms: make(map[string]Algorithm),
		parameters: make(map[string]map[string]interface{}),
	}

	manager.registerAlgorithms()
	manager.initializeDefaultParameters()

	return manager
}

func (m *Manager) registerAlgorithms() {
	for _, spec := range builtinSpecs() {
		m.algorithms[spec.GetName()] = spec
	}
}

func (m *Manager) initializeDefaultParameters() {
	for name, algorithm := range m.algorithms {
		m.parameters[name] = algorithm.GetDefaultParameters()
	}
}

// Register adds or replaces an algorithm and resets its parameters.
func (m *Manager) Register(algorithm Algorithm) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.algorithms[algorithm.GetName()] = algorithm
	m.parameters[algorithm.GetName()] = algorithm.GetDefaultParameters()
}

func (m *Manager) GetParameters(algorithm string) map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if params, exists := m.parameters[algorithm]; exists {
		result := make(map[string]interface{})
		for k, v := range params {
			result[k] = v
		}
		return result
	}

	return make(map[string]interface{})
}

// SetParameter changes the stored value used when a step omits the
// parameter. The value is validated before it is stored.
func (m *Manager) SetParameter(algorithm, name string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alg, exists := m.algorithms[algorithm]
	if !exists {
		return fmt.Errorf("%w: unknown algorithm: %s", models.ErrInvalidParameter, algorithm)
	}
	if err := alg.ValidateParameters(map[string]interface{}{name: value}); err != nil {
		return err
	}
	m.parameters[algorithm][name] = value
	return nil
}

func (m *Manager) GetAlgorithm(name string) (Algorithm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if algorithm, exists := m.algorithms[name]; exists {
		return algorithm, nil
	}

	return nil, fmt.Errorf("%w: unknown algorithm: %s", models.ErrInvalidParameter, name)
}

// GetAvailableAlgorithms returns the registered names in sorted order.
func (m *Manager) GetAvailableAlgorithms() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	algorithms := make([]string, 0, len(m.algorithms))
	for name := range m.algorithms {
		algorithms = append(algorithms, name)
	}
	sort.Strings(algorithms)

	return algorithms
}

// BuildStep creates one step from the stored parameters overlaid with params.
func (m *Manager) BuildStep(name string, params map[string]interface{}, env Environment) (chain.ProcessingStep, error) {
	m.mu.RLock()
	alg, exists := m.algorithms[name]
	merged := make(map[string]interface{}, len(m.parameters[name])+len(params))
	for k, v := range m.parameters[name] {
		merged[k] = v
	}
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: unknown algorithm: %s", models.ErrInvalidParameter, name)
	}
	for k, v := range params {
		merged[k] = v
	}
	return alg.Build(merged, env)
}

// BuildChain turns a recipe into a chain. Every step is built before any
// runs, so a bad recipe fails without touching the image.
func (m *Manager) BuildChain(recipe *config.Recipe) (*chain.ProcessingChain, error) {
	if err := recipe.Validate(); err != nil {
		return nil, err
	}

	env := Environment{Backend: recipe.Backend, Workers: recipe.Workers}
	steps := make([]chain.ProcessingStep, 0, len(recipe.Steps))
	for i, sc := range recipe.Steps {
		step, err := m.BuildStep(sc.Filter, sc.Params, env)
		if err != nil {
			return nil, fmt.Errorf("recipe %q step %d: %w", recipe.Name, i, err)
		}
		steps = append(steps, step)
	}
	return chain.NewProcessingChain(steps), nil
}
