// Package refdata ships the reference classifications bundled with taxomap:
// the IOCC commodity classification used by openIO-Canada, the European NACE
// activity classification, the exiobase product classification and the
// elementary flows of the IMPACT World+ LCIA method.
package refdata

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ecomapping/taxomap/taxomap"
)

//go:embed data/*.json
var dataFS embed.FS

// ErrUnknownReference is wrapped into the error returned by Load for names
// not present in the registry.
var ErrUnknownReference = errors.New("unknown reference classification")

type reference struct {
	file    string
	aliases []string
}

var registry = map[string]reference{
	"IOCC":          {file: "data/iocc_sectors.json", aliases: []string{"openIO-Canada", "openio"}},
	"NACE":          {file: "data/nace_sectors.json"},
	"exiobase":      {file: "data/exiobase_sectors.json"},
	"IMPACT World+": {file: "data/iw_flows.json", aliases: []string{"IW", "IW+"}},
}

// Names lists the canonical registry names in stable order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a user-supplied name or alias to the canonical registry name.
func Resolve(name string) (string, bool) {
	needle := strings.TrimSpace(name)
	for canonical, ref := range registry {
		if strings.EqualFold(canonical, needle) {
			return canonical, true
		}
		for _, alias := range ref.aliases {
			if strings.EqualFold(alias, needle) {
				return canonical, true
			}
		}
	}
	return "", false
}

// Load returns the entries of the named reference classification. Lookups
// are case-insensitive and accept aliases ("openIO-Canada" for IOCC, "IW"
// for IMPACT World+).
func Load(name string) ([]taxomap.ReferenceEntry, error) {
	canonical, ok := Resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownReference, name, strings.Join(Names(), ", "))
	}
	data, err := dataFS.ReadFile(registry[canonical].file)
	if err != nil {
		return nil, fmt.Errorf("read %s data: %w", canonical, err)
	}
	entries, err := taxomap.DecodeReferenceJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s data: %w", canonical, err)
	}
	return entries, nil
}

// Size returns the entry count of the named reference classification.
func Size(name string) (int, error) {
	entries, err := Load(name)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
