// Package seed loads YAML fixtures of gifts, codes, maps and configuration.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	apperrors "github.com/marblerush/economy/internal/errors"
	"github.com/marblerush/economy/internal/maps"
	"github.com/marblerush/economy/internal/redemption"
	"github.com/marblerush/economy/internal/settings"
)

// Fixture is the YAML document layout.
type Fixture struct {
	Gifts  []redemption.GiftSpec `yaml:"gifts"`
	Codes  []redemption.CodeSpec `yaml:"codes"`
	Maps   []MapSpec             `yaml:"maps"`
	Config map[string]any        `yaml:"config"`
}

// MapSpec is a custom map in a fixture.
type MapSpec struct {
	Name    string `yaml:"name"`
	Author  string `yaml:"author"`
	Weight  *int64 `yaml:"weight"`
	Active  *bool  `yaml:"active"`
	Payload any    `yaml:"payload"`
}

// Report counts what Apply created and skipped.
type Report struct {
	GiftsCreated int `json:"gifts_created"`
	GiftsSkipped int `json:"gifts_skipped"`
	CodesCreated int `json:"codes_created"`
	CodesSkipped int `json:"codes_skipped"`
	MapsCreated  int `json:"maps_created"`
	MapsSkipped  int `json:"maps_skipped"`
	ConfigKeys   int `json:"config_keys"`
}

// Loader applies fixtures through the owning components.
type Loader struct {
	registry *redemption.Registry
	settings *settings.Store
	maps     *maps.Catalog
}

// NewLoader constructs a Loader.
func NewLoader(registry *redemption.Registry, cfg *settings.Store, catalog *maps.Catalog) *Loader {
	return &Loader{registry: registry, settings: cfg, maps: catalog}
}

// ParseFile reads and parses a fixture file.
func ParseFile(path string) (*Fixture, error) {
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, errRead)
	}
	return Parse(data)
}

// Parse decodes a YAML fixture.
func Parse(data []byte) (*Fixture, error) {
	var fixture Fixture
	if errUnmarshal := yaml.Unmarshal(data, &fixture); errUnmarshal != nil {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("seed: invalid fixture: %v", errUnmarshal))
	}
	return &fixture, nil
}

// Apply writes the fixture. Records that already exist are skipped; config
// values always overwrite.
func (l *Loader) Apply(ctx context.Context, fixture *Fixture) (*Report, error) {
	report := &Report{}
	if errGifts := l.applyGifts(ctx, fixture.Gifts, report); errGifts != nil {
		return report, errGifts
	}
	if errCodes := l.applyCodes(ctx, fixture.Codes, report); errCodes != nil {
		return report, errCodes
	}
	if errMaps := l.applyMaps(ctx, fixture.Maps, report); errMaps != nil {
		return report, errMaps
	}
	if errConfig := l.applyConfig(ctx, fixture.Config, report); errConfig != nil {
		return report, errConfig
	}
	log.WithFields(log.Fields{
		"gifts": report.GiftsCreated,
		"codes": report.CodesCreated,
		"maps":  report.MapsCreated,
		"keys":  report.ConfigKeys,
	}).Info("seed: fixture applied")
	return report, nil
}

func (l *Loader) applyGifts(ctx context.Context, specs []redemption.GiftSpec, report *Report) error {
	if len(specs) == 0 {
		return nil
	}
	existing, errList := l.registry.ListGifts(ctx)
	if errList != nil {
		return errList
	}
	names := make(map[string]struct{}, len(existing))
	for _, gift := range existing {
		names[gift.Name] = struct{}{}
	}
	for _, spec := range specs {
		if _, ok := names[spec.Name]; ok {
			report.GiftsSkipped++
			continue
		}
		gift, errCreate := l.registry.CreateGift(ctx, spec)
		if errCreate != nil {
			return fmt.Errorf("seed: gift %q: %w", spec.Name, errCreate)
		}
		names[gift.Name] = struct{}{}
		report.GiftsCreated++
	}
	return nil
}

func (l *Loader) applyCodes(ctx context.Context, specs []redemption.CodeSpec, report *Report) error {
	for _, spec := range specs {
		if _, errCreate := l.registry.CreateCode(ctx, spec); errCreate != nil {
			if errors.Is(errCreate, apperrors.ErrConflict) {
				report.CodesSkipped++
				continue
			}
			return fmt.Errorf("seed: code %q: %w", spec.Code, errCreate)
		}
		report.CodesCreated++
	}
	return nil
}

func (l *Loader) applyMaps(ctx context.Context, specs []MapSpec, report *Report) error {
	if len(specs) == 0 {
		return nil
	}
	existing, errList := l.maps.List(ctx)
	if errList != nil {
		return errList
	}
	seen := make(map[[2]string]struct{}, len(existing))
	for _, entry := range existing {
		seen[[2]string{entry.Name, entry.Author}] = struct{}{}
	}
	for _, spec := range specs {
		if _, ok := seen[mapIdentity(spec)]; ok {
			report.MapsSkipped++
			continue
		}
		var payload json.RawMessage
		if spec.Payload != nil {
			raw, errMarshal := json.Marshal(spec.Payload)
			if errMarshal != nil {
				return apperrors.InvalidArgument(fmt.Sprintf("seed: map %q payload: %v", spec.Name, errMarshal))
			}
			payload = raw
		}
		entry, errSave := l.maps.SaveCustom(ctx, spec.Name, spec.Author, payload)
		if errSave != nil {
			return fmt.Errorf("seed: map %q: %w", spec.Name, errSave)
		}
		if spec.Weight != nil {
			if errWeight := l.maps.SetWeight(ctx, entry.Key, *spec.Weight); errWeight != nil {
				return errWeight
			}
		}
		if spec.Active != nil && !*spec.Active {
			if errActive := l.maps.SetActive(ctx, entry.Key, false); errActive != nil {
				return errActive
			}
		}
		seen[[2]string{entry.Name, entry.Author}] = struct{}{}
		report.MapsCreated++
	}
	return nil
}

// mapIdentity resolves the name and author SaveCustom would store.
func mapIdentity(spec MapSpec) [2]string {
	name, author := strings.TrimSpace(spec.Name), strings.TrimSpace(spec.Author)
	if name == "" {
		name = maps.DefaultName
	}
	if author == "" {
		author = maps.DefaultAuthor
	}
	return [2]string{name, author}
}

func (l *Loader) applyConfig(ctx context.Context, values map[string]any, report *Report) error {
	if len(values) == 0 {
		return nil
	}
	batch := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		raw, errMarshal := json.Marshal(value)
		if errMarshal != nil {
			return apperrors.InvalidArgument(fmt.Sprintf("seed: config %s: %v", key, errMarshal))
		}
		batch[key] = raw
	}
	if errSet := l.settings.SetMany(ctx, batch); errSet != nil {
		return fmt.Errorf("seed: config: %w", errSet)
	}
	report.ConfigKeys = len(batch)
	return nil
}
