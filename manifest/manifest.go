// Package manifest owns per-device configuration manifests and their
// idempotent reconciliation against durable object storage.
package manifest

import (
	"fmt"

	"howett.net/plist"
)

// Manifest is one device's managed-software configuration. The name is the
// device serial number and doubles as the storage key. Immutable once built.
type Manifest struct {
	Name              string   `plist:"-" json:"name"`
	Catalogs          []string `plist:"catalogs" json:"catalogs"`
	DisplayName       string   `plist:"display_name" json:"display_name"`
	IncludedManifests []string `plist:"included_manifests" json:"included_manifests"`
	ManagedInstalls   []string `plist:"managed_installs" json:"managed_installs"`
	ManagedUninstalls []string `plist:"managed_uninstalls" json:"managed_uninstalls"`
	ManagedUpdates    []string `plist:"managed_updates" json:"managed_updates"`
	OptionalInstalls  []string `plist:"optional_installs" json:"optional_installs"`
	User              string   `plist:"user" json:"user"`
}

// Builder accumulates manifest fields and finalizes into an immutable
// Manifest. Zero catalogs or included manifests fall back to defaults at
// Build time so the result is always well-formed.
type Builder struct {
	name              string
	catalogs          []string
	displayName       string
	includedManifests []string
}

// NewBuilder starts a manifest for the given device serial number.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, displayName: name}
}

// AddCatalog appends a catalog.
func (b *Builder) AddCatalog(catalog string) *Builder {
	if catalog != "" {
		b.catalogs = append(b.catalogs, catalog)
	}
	return b
}

// AddIncludedManifest appends a template manifest to inherit.
func (b *Builder) AddIncludedManifest(name string) *Builder {
	if name != "" {
		b.includedManifests = append(b.includedManifests, name)
	}
	return b
}

// SetDisplayName overrides the display name, which defaults to the serial.
func (b *Builder) SetDisplayName(name string) *Builder {
	if name != "" {
		b.displayName = name
	}
	return b
}

// Default catalog and template when nothing was configured or matched.
const (
	DefaultCatalog  = "production"
	DefaultIncluded = "site_default"
)

// Build finalizes the manifest. The managed-item sequences are always
// present and empty; remote tooling expects the keys to exist.
func (b *Builder) Build() Manifest {
	catalogs := b.catalogs
	if len(catalogs) == 0 {
		catalogs = []string{DefaultCatalog}
	}
	included := b.includedManifests
	if len(included) == 0 {
		included = []string{DefaultIncluded}
	}

	return Manifest{
		Name:              b.name,
		Catalogs:          catalogs,
		DisplayName:       b.displayName,
		IncludedManifests: included,
		ManagedInstalls:   []string{},
		ManagedUninstalls: []string{},
		ManagedUpdates:    []string{},
		OptionalInstalls:  []string{},
		User:              "",
	}
}

// Encode renders the manifest in the plist format the client tooling reads.
func (m Manifest) Encode() ([]byte, error) {
	data, err := plist.MarshalIndent(m, plist.XMLFormat, "\t")
	if err != nil {
		return nil, fmt.Errorf("encode manifest %s: %w", m.Name, err)
	}
	return data, nil
}
