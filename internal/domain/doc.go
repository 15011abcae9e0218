// Package domain contains the core domain entities and value objects for appship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (HTTP, file system, logging) and
// contains only the rules of a push.
//
// # Entities
//
//   - [Document]: an application or companion document loaded from disk
//   - [CompanionItem]: one entry of a companion batch, either a [RawItem] or a [DocumentItem]
//   - [Batch]: the companion items accumulated during one synchronization run
//   - [BulkOutcome]: the per-document result of a multi-document save
//   - [PushOptions]: the options recognised by push and pushdocs
//
// Nothing here performs I/O. Documents are built by the loader adapter and
// sent by the engine in internal/app; the types only carry the rules that
// hold regardless of where a document goes, such as identifier defaults and
// attachment stubs.
package domain
