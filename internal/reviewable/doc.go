// Package reviewable defines the capability interfaces a reviewed subject
// exposes to the engine, and the registry that resolves (subject type, id)
// references to implementations. The post-verdict hook is a separate optional
// interface detected by type assertion rather than reflection.
package reviewable
