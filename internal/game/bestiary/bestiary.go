// Package bestiary loads enemy templates from YAML and imports them as stored
// enemy participants.
package bestiary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tabletop/internal/game/interaction"
)

// Template defines an enemy archetype loaded from YAML.
type Template struct {
	ID          string                `yaml:"id"`
	Name        string                `yaml:"name"`
	Description string                `yaml:"description"`
	Health      int                   `yaml:"health"`
	Abilities   []interaction.Ability `yaml:"abilities"`
	// Effects are inflicted in order; only the first is used by interactions.
	Effects []string `yaml:"effects"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Health >= 1, every
// ability has a name and no ability name repeats; returns the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("enemy template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("enemy template %q: name must not be empty", t.ID)
	}
	if t.Health < 1 {
		return fmt.Errorf("enemy template %q: health must be >= 1", t.ID)
	}
	seen := make(map[string]bool, len(t.Abilities))
	for i, a := range t.Abilities {
		if a.Name == "" {
			return fmt.Errorf("enemy template %q: ability %d has no name", t.ID, i)
		}
		if seen[a.Name] {
			return fmt.Errorf("enemy template %q: ability %q listed twice", t.ID, a.Name)
		}
		seen[a.Name] = true
	}
	for i, e := range t.Effects {
		if e == "" {
			return fmt.Errorf("enemy template %q: effect %d is empty", t.ID, i)
		}
	}
	return nil
}

// Participant returns a new enemy participant built from t.
func (t *Template) Participant() *interaction.Participant {
	effects := make([]interaction.Effect, 0, len(t.Effects))
	for _, e := range t.Effects {
		effects = append(effects, interaction.Effect{Name: e})
	}
	abilities := make([]interaction.Ability, len(t.Abilities))
	copy(abilities, t.Abilities)
	return &interaction.Participant{
		Kind:      interaction.KindEnemy,
		Name:      t.Name,
		Health:    t.Health,
		Abilities: abilities,
		Effects:   effects,
	}
}

// LoadTemplateFromBytes parses a single enemy template from raw YAML bytes.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure, or when two files share an ID.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading enemy dir %q: %w", dir, err)
	}

	var templates []*Template
	ids := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if prev, dup := ids[tmpl.ID]; dup {
			return nil, fmt.Errorf("loading %q: id %q already defined in %q", path, tmpl.ID, prev)
		}
		ids[tmpl.ID] = path
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// Store is the subset of participant persistence the importer needs.
type Store interface {
	CreateParticipant(ctx context.Context, p *interaction.Participant) (*interaction.Participant, error)
	ListParticipants(ctx context.Context, kind interaction.Kind) ([]*interaction.Participant, error)
}

// Report summarizes an Import run.
type Report struct {
	Created int
	Skipped int
}

// Import stores an enemy for each template whose name is not already taken by a
// stored enemy, so re-running an import is harmless.
//
// Postcondition: Returns how many enemies were created and skipped, or the first
// store error. Enemies created before the error remain stored.
func Import(ctx context.Context, store Store, templates []*Template, logger *zap.Logger) (Report, error) {
	existing, err := store.ListParticipants(ctx, interaction.KindEnemy)
	if err != nil {
		return Report{}, fmt.Errorf("listing enemies: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[p.Name] = true
	}

	var rep Report
	for _, tmpl := range templates {
		if taken[tmpl.Name] {
			rep.Skipped++
			logger.Debug("enemy already stored", zap.String("template", tmpl.ID), zap.String("name", tmpl.Name))
			continue
		}
		p, err := store.CreateParticipant(ctx, tmpl.Participant())
		if err != nil {
			return rep, fmt.Errorf("creating enemy %q: %w", tmpl.ID, err)
		}
		taken[tmpl.Name] = true
		rep.Created++
		logger.Info("enemy imported",
			zap.String("template", tmpl.ID),
			zap.String("enemy_id", p.ID),
			zap.Int("health", p.Health),
			zap.Int("abilities", len(p.Abilities)),
		)
	}
	return rep, nil
}
