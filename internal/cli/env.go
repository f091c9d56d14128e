// Package cli implements the wisekeep commands. Commands receive their
// dependencies through Env so tests can run them against fakes without
// touching the network or the real config directory.
package cli

import (
	"io"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/RodimusGPT/wisekeep-sub001/internal/backend"
	"github.com/RodimusGPT/wisekeep-sub001/internal/blob"
	"github.com/RodimusGPT/wisekeep-sub001/internal/config"
	"github.com/RodimusGPT/wisekeep-sub001/internal/process"
	"github.com/RodimusGPT/wisekeep-sub001/internal/store"
	"github.com/RodimusGPT/wisekeep-sub001/internal/summarize"
	"github.com/RodimusGPT/wisekeep-sub001/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// All fields have production defaults via DefaultEnv(); tests override
// the ones they need.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	ConfigLoader   ConfigLoader
	StoreOpener    StoreOpener
	BackendFactory BackendFactory
	StorageFactory StorageFactory
	EngineFactory  EngineFactory
}

// ConfigLoader loads user configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// StoreOpener opens the local recordings snapshot.
type StoreOpener interface {
	Open(path string) (*store.Store, error)
}

// BackendFactory creates recordings-service clients.
type BackendFactory interface {
	NewClient(baseURL, apiKey string) backend.Client
}

// StorageFactory creates blob storage clients.
type StorageFactory interface {
	NewStorage(baseURL, apiKey string) blob.Storage
}

// EngineFactory creates processing engines for the worker command.
type EngineFactory interface {
	NewEngine(bc backend.Client, openaiKey string) *process.Engine
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithStoreOpener sets the local store opener.
func WithStoreOpener(o StoreOpener) EnvOption {
	return func(e *Env) {
		e.StoreOpener = o
	}
}

// WithBackendFactory sets the backend client factory.
func WithBackendFactory(f BackendFactory) EnvOption {
	return func(e *Env) {
		e.BackendFactory = f
	}
}

// WithStorageFactory sets the blob storage factory.
func WithStorageFactory(f StorageFactory) EnvOption {
	return func(e *Env) {
		e.StorageFactory = f
	}
}

// WithEngineFactory sets the processing engine factory.
func WithEngineFactory(f EngineFactory) EnvOption {
	return func(e *Env) {
		e.EngineFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		Getenv:         os.Getenv,
		Now:            time.Now,
		ConfigLoader:   &defaultConfigLoader{},
		StoreOpener:    &defaultStoreOpener{},
		BackendFactory: &defaultBackendFactory{},
		StorageFactory: &defaultStorageFactory{},
		EngineFactory:  &defaultEngineFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

type defaultStoreOpener struct{}

func (defaultStoreOpener) Open(path string) (*store.Store, error) {
	return store.Open(path)
}

type defaultBackendFactory struct{}

func (defaultBackendFactory) NewClient(baseURL, apiKey string) backend.Client {
	return backend.NewHTTPClient(baseURL, apiKey)
}

type defaultStorageFactory struct{}

func (defaultStorageFactory) NewStorage(baseURL, apiKey string) blob.Storage {
	return blob.NewHTTPStorage(baseURL, apiKey)
}

type defaultEngineFactory struct{}

func (defaultEngineFactory) NewEngine(bc backend.Client, openaiKey string) *process.Engine {
	client := openai.NewClient(openaiKey)
	return process.NewEngine(bc,
		process.NewHTTPFetcher(),
		transcribe.New(client),
		summarize.New(client),
	)
}

// Compile-time interface verification.
var (
	_ ConfigLoader   = (*defaultConfigLoader)(nil)
	_ StoreOpener    = (*defaultStoreOpener)(nil)
	_ BackendFactory = (*defaultBackendFactory)(nil)
	_ StorageFactory = (*defaultStorageFactory)(nil)
	_ EngineFactory  = (*defaultEngineFactory)(nil)
)
