package ml

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type StoreConfig struct {
	ModelType   string
	ModelPath   string
	EncoderPath string
}

// Artifacts is a model and label encoder that loaded together and agree on
// the class ids.
type Artifacts struct {
	Model     Classifier
	Decoder   Decoder
	ModelType string
	LoadedAt  time.Time
}

// LoadError collects every artifact that failed in one load attempt.
type LoadError struct {
	Errors []error
}

func (e *LoadError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e *LoadError) Unwrap() []error {
	return e.Errors
}

// ArtifactStore loads the model and label encoder on first use and keeps
// them until Invalidate is called. Failed loads are not remembered, so a file
// that shows up later is picked up by the next Load.
type ArtifactStore struct {
	config StoreConfig
	logger *zap.Logger

	loadModel   func(modelType, path string) (Classifier, error)
	loadEncoder func(path string) (Decoder, error)

	mu        sync.Mutex
	current   *Artifacts
	listeners []func()

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewArtifactStore(config StoreConfig, logger *zap.Logger) *ArtifactStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactStore{
		config:      config,
		logger:      logger,
		loadModel:   LoadModel,
		loadEncoder: LoadLabelEncoder,
	}
}

func (s *ArtifactStore) Config() StoreConfig {
	return s.config
}

func (s *ArtifactStore) Load() (*Artifacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return s.current, nil
	}

	var errs []error
	model, err := s.loadModel(s.config.ModelType, s.config.ModelPath)
	if err != nil {
		errs = append(errs, err)
	}
	decoder, err := s.loadEncoder(s.config.EncoderPath)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		if err := CheckCompatible(model, decoder); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		if closer, ok := model.(Closer); ok {
			closer.Close()
		}
		for _, err := range errs {
			if errors.Is(err, ErrMissingArtifact) {
				s.logger.Warn("artifact missing", zap.Error(err))
			} else {
				s.logger.Error("artifact invalid", zap.Error(err))
			}
		}
		return nil, &LoadError{Errors: errs}
	}

	s.current = &Artifacts{
		Model:     model,
		Decoder:   decoder,
		ModelType: s.config.ModelType,
		LoadedAt:  time.Now(),
	}
	s.logger.Info("artifacts loaded",
		zap.String("model_path", s.config.ModelPath),
		zap.String("encoder_path", s.config.EncoderPath),
		zap.Ints("classes", model.Classes()),
	)
	return s.current, nil
}

// OnInvalidate registers fn to run after loaded artifacts are dropped.
func (s *ArtifactStore) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *ArtifactStore) Invalidate() {
	s.mu.Lock()
	previous := s.current
	s.current = nil
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	if previous != nil {
		if closer, ok := previous.Model.(Closer); ok {
			closer.Close()
		}
		s.logger.Info("artifacts invalidated")
	}
	for _, fn := range listeners {
		fn()
	}
}

// Watch invalidates the store whenever one of the artifact files changes on
// disk.
func (s *ArtifactStore) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	targets := s.watchedFiles()
	dirs := make(map[string]bool)
	for file := range targets {
		dirs[filepath.Dir(file)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return err
		}
	}

	s.mu.Lock()
	s.watcher = watcher
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.watchLoop(watcher, targets, s.done)
	return nil
}

func (s *ArtifactStore) watchLoop(watcher *fsnotify.Watcher, targets map[string]bool, done chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.logger.Info("artifact changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			s.Invalidate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("artifact watcher error", zap.Error(err))
		}
	}
}

func (s *ArtifactStore) watchedFiles() map[string]bool {
	files := map[string]bool{
		filepath.Clean(s.config.ModelPath):   true,
		filepath.Clean(s.config.EncoderPath): true,
	}
	if s.config.ModelType == ModelTypeONNX {
		files[filepath.Clean(ONNXMetadataPath(s.config.ModelPath))] = true
	}
	return files
}

func (s *ArtifactStore) Close() error {
	s.mu.Lock()
	watcher := s.watcher
	done := s.done
	s.watcher = nil
	s.done = nil
	current := s.current
	s.current = nil
	s.mu.Unlock()

	var err error
	if watcher != nil {
		close(done)
		err = watcher.Close()
		s.wg.Wait()
	}
	if current != nil {
		if closer, ok := current.Model.(Closer); ok {
			closer.Close()
		}
	}
	return err
}
