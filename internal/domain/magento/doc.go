// Package magento contains the Magento synchronization bounded context.
// It describes how remote Magento catalog entities are tracked against the
// local catalog.
//
// Key concepts:
//   - Instance: a configured Magento store connection (the tenant of an import)
//   - Website: a sales channel inside an instance
//   - CategoryReference / TemplateReference: cross-references from local records to remote ids
//   - CategoryDocument / ProductDocument: remote entity documents as returned by the Magento API
//   - RemoteAccessor: port used to fetch documents from Magento
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package magento
