package odoo

import (
	"fmt"
	"sort"
)

// Candidate is one record staged for creation, keyed by the id it had in the
// source API.
type Candidate struct {
	SourceID int
	Name     string
	Fields   map[string]interface{}
}

// SortCandidates orders candidates by ascending source id so batch
// submissions are deterministic across runs.
func SortCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].SourceID < candidates[j].SourceID
	})
}

// Reconcile matches candidates against records already present in the model
// so repeated runs never create duplicates. A candidate whose name exactly
// matches an existing record is dropped from the create set and contributes
// only its resolved id; when several existing records share a name the first
// one returned wins. The returned id map is keyed by source id.
func (c *Client) Reconcile(model string, candidates []Candidate) ([]Candidate, map[int]int64, error) {
	existing, err := c.SearchReadNames(model)
	if err != nil {
		return nil, nil, err
	}

	byName := make(map[string]int64, len(existing))
	for _, rec := range existing {
		if _, seen := byName[rec.Name]; !seen {
			byName[rec.Name] = rec.ID
		}
	}

	idMap := make(map[int]int64)
	remaining := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if id, ok := byName[cand.Name]; ok {
			idMap[cand.SourceID] = id
			if c.log != nil {
				c.log.Debugf("Record %q already exists in %s with id %d, skipping", cand.Name, model, id)
			}
			continue
		}
		remaining = append(remaining, cand)
	}
	return remaining, idMap, nil
}

// Upload submits the remaining candidates in one batch create, zips the
// returned ids with the submitted source ids in order, and merges them into
// the id map. Each created record is logged with its kind, name, new id and
// source id.
func (c *Client) Upload(model, kind string, candidates []Candidate, idMap map[int]int64) (map[int]int64, error) {
	if idMap == nil {
		idMap = make(map[int]int64)
	}
	if len(candidates) == 0 {
		return idMap, nil
	}

	records := make([]map[string]interface{}, 0, len(candidates))
	for _, cand := range candidates {
		records = append(records, cand.Fields)
	}

	ids, err := c.CreateBatch(model, records)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(candidates) {
		return nil, fmt.Errorf("%w: model %q: submitted %d records, got %d ids back", ErrBatchCreate, model, len(candidates), len(ids))
	}

	for i, cand := range candidates {
		idMap[cand.SourceID] = ids[i]
		if c.log != nil {
			c.log.Infof("The entity type: %s, name: %s, odoo id: %d, source id: %d is created", kind, cand.Name, ids[i], cand.SourceID)
		}
	}
	return idMap, nil
}
