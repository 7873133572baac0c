// Package pipeline drives a full migration run: planets first, then
// characters, with the planet id map feeding character homeworld resolution.
package pipeline

import (
	"context"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/andkozlov/starload/pkg/images"
	"github.com/andkozlov/starload/pkg/odoo"
	"github.com/andkozlov/starload/pkg/storage"
	"github.com/andkozlov/starload/pkg/swapi"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Store is the slice of the target-store client the pipeline needs.
// *odoo.Client satisfies it; tests substitute a fake.
type Store interface {
	Reconcile(model string, candidates []odoo.Candidate) ([]odoo.Candidate, map[int]int64, error)
	Upload(model, kind string, candidates []odoo.Candidate, idMap map[int]int64) (map[int]int64, error)
}

// Config holds everything Run needs for a single migration.
type Config struct {
	PlanetURL    string
	CharacterURL string
	ImageURL     string

	PlanetsModel    string
	CharactersModel string

	Session *retryablehttp.Client
	Store   Store
	Ledger  *storage.DB // optional; nil = no ledger
	Sniffer images.Sniffer

	Concurrency int // fetch workers, defaults to 10 if <= 0
	MaxAttempts int // per-URL attempt budget, defaults to 10 if <= 0
	SkipImages  bool
	Progress    bool
	Log         Logger // optional; nil = no logging
}

// Result holds the outcome of one migration run.
type Result struct {
	PlanetIDs    map[int]int64
	CharacterIDs map[int]int64

	PlanetsCreated    int
	CharactersCreated int
}

// Run migrates both collections. The phases are strictly sequential: the
// planet collection is fully reconciled and uploaded before any character
// work starts, and homeworld remapping sits between character normalization
// and character reconciliation.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}

	fetcher := &swapi.Fetcher{
		Session:     cfg.Session,
		Concurrency: cfg.Concurrency,
		MaxAttempts: cfg.MaxAttempts,
		Progress:    cfg.Progress,
		Log:         log,
	}
	runID := time.Now().Unix()
	result := &Result{}

	// Phase 1: planets.
	log.Debugf("Planning planet pages from %s", cfg.PlanetURL)
	pageURLs, err := swapi.PlanPages(cfg.Session, cfg.PlanetURL)
	if err != nil {
		return nil, err
	}

	pages, err := fetcher.FetchJSON(pageURLs, "Fetching planet data")
	if err != nil {
		return nil, err
	}

	planets := swapi.NormalizePlanets(pages, log)
	log.Debugf("Normalized %d planets from %d pages", len(planets), len(pages))

	planetIDs, created, err := reconcileAndUpload(ctx, cfg, planetCandidates(planets), cfg.PlanetsModel, "planet", runID, log)
	if err != nil {
		return nil, err
	}
	result.PlanetIDs = planetIDs
	result.PlanetsCreated = created
	log.Infof("Planets are loaded into Odoo: %d created, %d matched", created, len(planetIDs)-created)

	// Phase 2: characters.
	log.Debugf("Planning character pages from %s", cfg.CharacterURL)
	pageURLs, err = swapi.PlanPages(cfg.Session, cfg.CharacterURL)
	if err != nil {
		return nil, err
	}

	pages, err = fetcher.FetchJSON(pageURLs, "Fetching character data")
	if err != nil {
		return nil, err
	}

	characters := swapi.NormalizeCharacters(pages, log)
	log.Debugf("Normalized %d characters from %d pages", len(characters), len(pages))

	if !cfg.SkipImages {
		photoURLs := swapi.PlanPhotos(cfg.ImageURL, len(characters))
		payloads, err := fetcher.FetchRaw(photoURLs, "Fetching character images")
		if err != nil {
			return nil, err
		}
		swapi.AttachImages(characters, images.Classify(payloads, cfg.Sniffer, log))
	}

	// The planet id map is complete at this point, covering both matched
	// and newly created planets.
	swapi.RemapHomeworlds(characters, planetIDs)

	characterIDs, created, err := reconcileAndUpload(ctx, cfg, characterCandidates(characters), cfg.CharactersModel, "character", runID, log)
	if err != nil {
		return nil, err
	}
	result.CharacterIDs = characterIDs
	result.CharactersCreated = created
	log.Infof("Characters are loaded into Odoo: %d created, %d matched", created, len(characterIDs)-created)

	return result, nil
}

// reconcileAndUpload runs both store phases for one collection and appends
// the newly created records to the ledger.
func reconcileAndUpload(ctx context.Context, cfg Config, candidates []odoo.Candidate, model, kind string, runID int64, log Logger) (map[int]int64, int, error) {
	remaining, idMap, err := cfg.Store.Reconcile(model, candidates)
	if err != nil {
		return nil, 0, err
	}
	log.Debugf("%d of %d %ss already present in %s", len(candidates)-len(remaining), len(candidates), kind, model)

	idMap, err = cfg.Store.Upload(model, kind, remaining, idMap)
	if err != nil {
		return nil, 0, err
	}

	if cfg.Ledger != nil {
		records := make([]storage.CreatedRecord, 0, len(remaining))
		for _, cand := range remaining {
			records = append(records, storage.CreatedRecord{
				RunID:    runID,
				Kind:     kind,
				Name:     cand.Name,
				OdooID:   idMap[cand.SourceID],
				SourceID: int64(cand.SourceID),
			})
		}
		if err := cfg.Ledger.RecordCreations(ctx, runID, records); err != nil {
			// The records are already in Odoo, losing the ledger row is
			// not worth aborting over.
			log.Warnf("Could not record %s creations in the ledger: %v", kind, err)
		}
	}

	return idMap, len(remaining), nil
}

// planetCandidates shapes canonical planets into store records. Suppressed
// fields are submitted as empty strings, never as zeroes.
func planetCandidates(planets map[int]swapi.Planet) []odoo.Candidate {
	candidates := make([]odoo.Candidate, 0, len(planets))
	for _, p := range planets {
		candidates = append(candidates, odoo.Candidate{
			SourceID: p.SourceID,
			Name:     p.Name,
			Fields: map[string]interface{}{
				"name":            p.Name,
				"diameter":        p.Diameter,
				"rotation_period": p.RotationPeriod,
				"orbital_period":  p.OrbitalPeriod,
				"population":      p.Population,
			},
		})
	}
	odoo.SortCandidates(candidates)
	return candidates
}

// characterCandidates shapes canonical characters into store records. The
// image field is only present when a portrait was actually fetched.
func characterCandidates(characters map[int]swapi.Character) []odoo.Candidate {
	candidates := make([]odoo.Candidate, 0, len(characters))
	for _, c := range characters {
		fields := map[string]interface{}{
			"name":   c.Name,
			"planet": c.Planet,
		}
		if c.Image1920 != "" {
			fields["image_1920"] = c.Image1920
		}
		candidates = append(candidates, odoo.Candidate{
			SourceID: c.SourceID,
			Name:     c.Name,
			Fields:   fields,
		})
	}
	odoo.SortCandidates(candidates)
	return candidates
}
