package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rpgo/projection-engine/internal/domain"
)

// ScenarioWatcher holds the latest valid scenario from a file and reloads it
// when the file changes. A reload that fails validation keeps the previous
// scenario and is reported through the error callback.
type ScenarioWatcher struct {
	path     string
	parser   *InputParser
	mu       sync.RWMutex
	current  *domain.Scenario
	onChange []func(*domain.Scenario, []string)
	onError  func(error)
}

// NewScenarioWatcher performs the initial load.
func NewScenarioWatcher(path string, parser *InputParser) (*ScenarioWatcher, []string, error) {
	if parser == nil {
		parser = NewInputParser()
	}
	w := &ScenarioWatcher{path: path, parser: parser}
	s, warnings, err := parser.LoadScenario(path)
	if err != nil {
		return nil, warnings, err
	}
	w.current = s
	return w, warnings, nil
}

// Scenario returns the current scenario.
func (w *ScenarioWatcher) Scenario() *domain.Scenario {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload.
func (w *ScenarioWatcher) OnChange(fn func(*domain.Scenario, []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// OnError registers the callback for failed reloads and watcher errors.
func (w *ScenarioWatcher) OnError(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Watch starts a background goroutine that reloads on writes. Call the
// returned stop function to clean up.
func (w *ScenarioWatcher) Watch() (stop func(), err error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("scenario watcher: %w", err)
	}
	if err := fw.Add(w.path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("scenario watcher add %s: %w", w.path, err)
	}

	done := make(chan struct{})
	var once sync.Once
	go func() {
		defer fw.Close()
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, _, err := w.Reload(); err != nil {
						w.reportError(err)
					}
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.reportError(err)
			case <-done:
				return
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the scenario file.
func (w *ScenarioWatcher) Reload() (*domain.Scenario, []string, error) {
	s, warnings, err := w.parser.LoadScenario(w.path)
	if err != nil {
		return nil, warnings, err
	}
	w.mu.Lock()
	w.current = s
	callbacks := make([]func(*domain.Scenario, []string), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn(s, warnings)
	}
	return s, warnings, nil
}

func (w *ScenarioWatcher) reportError(err error) {
	w.mu.RLock()
	fn := w.onError
	w.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}
