// Package ports defines the interfaces (ports) that connect the push engine to
// infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// engine needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [Database]: a live handle to one remote document store
//   - [DestinationResolver]: turns a destination string into databases
//   - [DocumentLoader]: loads documents and companion files from disk
//   - [Hook] and [HookRegistry]: lifecycle hooks run around a push
//   - [Configurer]: merges application-local configuration before a push
//   - [Browser]: opens a pushed application
//   - [Logger]: structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The engine (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// implementations (CouchDB over HTTP, billy filesystems, subprocesses, zerolog).
package ports
