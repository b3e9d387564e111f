// Package boot wires a process's callback entry point from callwire.toml:
// it loads the catalog, builds the managed callers, opens the capture store
// and installs the dispatch handler.
package boot

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/callwire/capture"
	"github.com/chazu/callwire/config"
	"github.com/chazu/callwire/dispatch"
	"github.com/chazu/callwire/managed"
	"github.com/chazu/callwire/native"
	"github.com/chazu/callwire/signature"
)

var log = commonlog.GetLogger("callwire.boot")

// Options are the parts of the process boot cannot build itself.
type Options struct {
	// Runtime receives managed callback buffers. Required.
	Runtime managed.Runtime

	// Symbols holds native targets. A new table is created when nil.
	Symbols *native.Symbols

	// Records decodes record parameters.
	Records *signature.Records

	// Routines are statically typed routines; they take precedence over
	// catalog entries of the same kind.
	Routines []dispatch.Routine
}

// Process is a booted callback entry point.
type Process struct {
	Config     *config.Config
	Catalog    *signature.Catalog
	Symbols    *native.Symbols
	Dispatcher *dispatch.Dispatcher
	Handler    *dispatch.Handler

	store *capture.Store
}

// Start builds a Process from cfg. It does not install the handler.
func Start(cfg *config.Config, opts Options) (*Process, error) {
	if opts.Runtime == nil {
		return nil, fmt.Errorf("boot: no managed runtime")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := dispatch.ParsePolicy(cfg.Dispatch.OnDecodeError)
	if err != nil {
		return nil, err
	}

	cat, err := signature.LoadCatalog(cfg.CatalogPath())
	if err != nil {
		return nil, err
	}

	p := &Process{Config: cfg, Catalog: cat, Symbols: opts.Symbols}
	if p.Symbols == nil {
		p.Symbols = native.NewSymbols()
	}

	codec := &signature.Codec{Records: opts.Records}
	callers := (&managed.Callers{
		Symbols:     p.Symbols,
		Codec:       codec,
		Runtime:     opts.Runtime,
		PointerSize: cfg.Wire.PointerSize,
	}).Register(cat)
	// Arguments sent back to the VM may carry continuations too.
	codec.Callers = callers

	reg := dispatch.NewRegistry()
	for _, rt := range opts.Routines {
		if err := reg.Register(rt); err != nil {
			return nil, err
		}
	}
	if err := reg.RegisterCatalog(cat); err != nil {
		return nil, err
	}

	var dopts []dispatch.Option
	if cfg.Capture.Enabled {
		p.store, err = capture.Open(cfg.CapturePath())
		if err != nil {
			return nil, err
		}
		dopts = append(dopts, dispatch.WithRecorder(p.store))
	}

	env := dispatch.Env{
		Symbols:     p.Symbols,
		Callers:     callers,
		Records:     opts.Records,
		PointerSize: cfg.Wire.PointerSize,
	}
	p.Dispatcher = dispatch.NewDispatcher(reg, env, dopts...)
	p.Handler = dispatch.NewHandler(p.Dispatcher, policy)

	log.Infof("%d callback kinds, policy %s, capture %v", reg.Len(), policy, cfg.Capture.Enabled)
	return p, nil
}

// Install makes p the process-wide entry point.
func (p *Process) Install() error {
	return dispatch.Install(p.Handler)
}

// Store returns the capture store, or nil when capture is disabled.
func (p *Process) Store() *capture.Store { return p.store }

// Close releases the capture store.
func (p *Process) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}
