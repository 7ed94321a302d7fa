// Package resolve maps free-form names to canonical registry ids.
package resolve

import (
	"fmt"
	"strings"

	"pickem/ingestion/internal/registry"
)

// Error categories reported per failed lookup.
const (
	CategoryTeamNotFound    = "team_not_found"
	CategoryTeamAmbiguous   = "team_ambiguous"
	CategoryPickerNotFound  = "picker_not_found"
	CategoryPickerAmbiguous = "picker_ambiguous"
)

// NotFoundError means no entity of Kind declares Name as an alias.
type NotFoundError struct {
	Kind registry.Kind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found: update %s", e.Kind, e.Name, aliasField(e.Kind))
}

// Category implements batch.Categorized.
func (e *NotFoundError) Category() string {
	if e.Kind == registry.Picker {
		return CategoryPickerNotFound
	}
	return CategoryTeamNotFound
}

// AmbiguousError means more than one entity of Kind declares Name as an alias.
type AmbiguousError struct {
	Kind registry.Kind
	Name string
	IDs  []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s %q ambiguous: found [%s]", e.Kind, e.Name, strings.Join(e.IDs, ", "))
}

// Category implements batch.Categorized.
func (e *AmbiguousError) Category() string {
	if e.Kind == registry.Picker {
		return CategoryPickerAmbiguous
	}
	return CategoryTeamAmbiguous
}

// Resolver looks names up in one registry snapshot.
type Resolver struct {
	reg *registry.Registry
}

// New creates a resolver over reg.
func New(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve returns the single id whose aliases contain name. Failures are a
// *NotFoundError or an *AmbiguousError.
func (r *Resolver) Resolve(kind registry.Kind, name string) (string, error) {
	ids := r.reg.Lookup(kind, name)
	switch len(ids) {
	case 0:
		return "", &NotFoundError{Kind: kind, Name: name}
	case 1:
		return ids[0], nil
	default:
		matches := make([]string, len(ids))
		copy(matches, ids)
		return "", &AmbiguousError{Kind: kind, Name: name, IDs: matches}
	}
}

// Team resolves a team name.
func (r *Resolver) Team(name string) (string, error) {
	return r.Resolve(registry.Team, name)
}

// Picker resolves a picker name.
func (r *Resolver) Picker(name string) (string, error) {
	return r.Resolve(registry.Picker, name)
}

// Bye returns the bye sentinel team id.
func (r *Resolver) Bye() string {
	return r.reg.Bye()
}

func aliasField(kind registry.Kind) string {
	if kind == registry.Picker {
		return "pickers.aliases"
	}
	return "teams.other_names"
}
