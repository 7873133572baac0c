package swapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// sentinelName marks records the source itself considers placeholders.
const sentinelName = "unknown"

// ParseResourceID extracts the numeric id from a self-referential resource
// URL of the form .../scheme/<id>/ (the trailing slash is optional).
func ParseResourceID(url string) (int, error) {
	trimmed := strings.TrimSuffix(url, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return 0, fmt.Errorf("no path segments in resource url %q", url)
	}
	id, err := strconv.Atoi(trimmed[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("bad resource id in url %q: %v", url, err)
	}
	return id, nil
}

// suppressSentinel blanks values the source uses to mean "not known".
func suppressSentinel(value string) string {
	if value == sentinelName || value == "0" {
		return ""
	}
	return value
}

// NormalizePlanets flattens the raw page payloads into canonical planet
// records keyed by source id. Records named "unknown" are placeholders and
// skipped entirely; a duplicate source id on a later page wins.
func NormalizePlanets(pages [][]byte, log Logger) map[int]Planet {
	planets := make(map[int]Planet)
	for _, page := range pages {
		for _, raw := range gjson.GetBytes(page, "results").Array() {
			name := raw.Get("name").Str
			if name == "" || name == sentinelName {
				continue
			}
			id, err := ParseResourceID(raw.Get("url").Str)
			if err != nil {
				if log != nil {
					log.Warnf("Skipping planet %q: %v", name, err)
				}
				continue
			}
			planets[id] = Planet{
				SourceID:       id,
				Name:           name,
				Diameter:       suppressSentinel(raw.Get("diameter").Str),
				RotationPeriod: suppressSentinel(raw.Get("rotation_period").Str),
				OrbitalPeriod:  suppressSentinel(raw.Get("orbital_period").Str),
				Population:     suppressSentinel(raw.Get("population").Str),
			}
		}
	}
	return planets
}

// NormalizeCharacters flattens the raw page payloads into canonical character
// records keyed by source id. A record without a homeworld URL gets planet id
// 0, meaning no planet.
func NormalizeCharacters(pages [][]byte, log Logger) map[int]Character {
	characters := make(map[int]Character)
	for _, page := range pages {
		for _, raw := range gjson.GetBytes(page, "results").Array() {
			name := raw.Get("name").Str
			if name == "" || name == sentinelName {
				continue
			}
			id, err := ParseResourceID(raw.Get("url").Str)
			if err != nil {
				if log != nil {
					log.Warnf("Skipping character %q: %v", name, err)
				}
				continue
			}

			homeworld := 0
			if hw := raw.Get("homeworld").Str; hw != "" {
				homeworld, err = ParseResourceID(hw)
				if err != nil {
					if log != nil {
						log.Warnf("Character %q has an unparseable homeworld url, treating as none: %v", name, err)
					}
					homeworld = 0
				}
			}

			characters[id] = Character{
				SourceID:  id,
				Name:      name,
				Homeworld: homeworld,
			}
		}
	}
	return characters
}
