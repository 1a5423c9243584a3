// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CatalogueStore: Rule catalogue persistence with backups
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ConsultationLog: Consultation history. Without it, history and usage statistics are empty.
//   - CatalogueWatcher: Hot reload of the catalogue file. Without it, changes need an explicit reload.
//   - ReportRenderer: Output formats for consultations and catalogue exports.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
