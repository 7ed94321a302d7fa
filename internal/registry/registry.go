package registry

import (
	"context"
	"fmt"
	"sort"

	"pickem/ingestion/internal/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Kind identifies a class of canonical entity.
type Kind string

const (
	Team   Kind = "team"
	Picker Kind = "picker"
)

// Kinds lists every kind the registry indexes.
var Kinds = []Kind{Team, Picker}

// Entity is a canonical roster entry and the aliases operators may use for it.
type Entity struct {
	ID      string   `json:"id"`
	Kind    Kind     `json:"kind"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

// Source fetches the roster for one kind.
type Source interface {
	ListEntities(ctx context.Context, kind Kind) ([]Entity, error)
}

// Registry is an immutable alias index over a roster snapshot.
type Registry struct {
	bye     string
	aliases map[Kind]map[string][]string
}

// New indexes entities by alias. Two entities sharing an alias are allowed;
// the alias then maps to both ids. byeID must name one of the teams.
func New(byeID string, entities ...Entity) (*Registry, error) {
	if byeID == "" {
		return nil, fmt.Errorf("bye team id is required")
	}

	r := &Registry{
		bye:     byeID,
		aliases: make(map[Kind]map[string][]string, len(Kinds)),
	}
	for _, k := range Kinds {
		r.aliases[k] = make(map[string][]string)
	}

	byeFound := false
	for _, e := range entities {
		index, ok := r.aliases[e.Kind]
		if !ok {
			return nil, fmt.Errorf("entity %q has unknown kind %q", e.ID, e.Kind)
		}
		if e.ID == "" {
			return nil, fmt.Errorf("%s entity with empty id", e.Kind)
		}
		if e.Kind == Team && e.ID == byeID {
			byeFound = true
		}
		for _, alias := range e.Aliases {
			index[alias] = appendUnique(index[alias], e.ID)
		}
	}
	if !byeFound {
		return nil, fmt.Errorf("bye team %q is not a registered team", byeID)
	}

	for _, index := range r.aliases {
		for alias := range index {
			sort.Strings(index[alias])
		}
	}

	return r, nil
}

// Load fetches teams and pickers from src and indexes them.
func Load(ctx context.Context, src Source, byeID string) (*Registry, error) {
	results := make([][]Entity, len(Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range Kinds {
		g.Go(func() error {
			entities, err := src.ListEntities(gctx, kind)
			if err != nil {
				return fmt.Errorf("failed to load %s entities: %w", kind, err)
			}
			for j := range entities {
				entities[j].Kind = kind
			}
			results[i] = entities
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Entity
	for _, entities := range results {
		all = append(all, entities...)
	}

	r, err := New(byeID, all...)
	if err != nil {
		return nil, err
	}

	for _, kind := range Kinds {
		metrics.UpdateRegistryStats(string(kind), r.Len(kind))
	}
	if amb := r.Ambiguous(Team); len(amb) > 0 {
		log.Warn().Strs("aliases", amb).Msg("Team aliases shared by more than one team")
	}
	if amb := r.Ambiguous(Picker); len(amb) > 0 {
		log.Warn().Strs("aliases", amb).Msg("Picker aliases shared by more than one picker")
	}

	log.Info().
		Int("teams", len(results[0])).
		Int("pickers", len(results[1])).
		Int("team_aliases", r.Len(Team)).
		Int("picker_aliases", r.Len(Picker)).
		Str("bye", byeID).
		Msg("Registry loaded")

	return r, nil
}

// Lookup returns the ids whose alias set contains alias. The result is sorted
// and must not be modified.
func (r *Registry) Lookup(kind Kind, alias string) []string {
	return r.aliases[kind][alias]
}

// Bye returns the id of the sentinel team used for bye weeks.
func (r *Registry) Bye() string {
	return r.bye
}

// Len returns the number of distinct aliases known for kind.
func (r *Registry) Len(kind Kind) int {
	return len(r.aliases[kind])
}

// Ambiguous lists the aliases of kind that map to more than one entity.
func (r *Registry) Ambiguous(kind Kind) []string {
	var out []string
	for alias, ids := range r.aliases[kind] {
		if len(ids) > 1 {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
