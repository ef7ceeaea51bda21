// Package services defines the shared error taxonomy used by pipeline
// components and external service clients.
package services
