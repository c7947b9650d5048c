package resolver

import "isbndate/internal/isbn"

// Preview summarizes how much of an input is already answered by the cache.
type Preview struct {
	Total   int `json:"total"`
	Cached  int `json:"cached"`
	Invalid int `json:"invalid"`
	ToFetch int `json:"to_fetch"`
}

// Preview classifies ids without contacting any provider.
func (r *Resolver) Preview(ids []string) Preview {
	p := Preview{Total: len(ids)}
	for _, raw := range ids {
		id, err := isbn.Normalize(raw)
		if err != nil {
			p.Invalid++
			continue
		}
		if _, ok := r.cache.Get(id); ok {
			p.Cached++
			continue
		}
		p.ToFetch++
	}
	return p
}
