// Package provider is a small generic registry for swappable backends.
// Factories are registered by name and instantiated lazily the first time
// the name is resolved:
//
//	reg := provider.NewRegistry[recognition.Backend]()
//	reg.RegisterFactory("azure", func() (recognition.Backend, error) { return azure.New(cfg, log) })
//	backend, err := reg.Resolve(cfg.Recognition.Backend)
package provider
