package planner

import "fmt"

// SaveReview appends r to the review log with a fresh id and the current
// date, and returns the stored review.
func (p *Planner) SaveReview(r Review) (Review, error) {
	if r.Type != ReviewWeekly && r.Type != ReviewQuarterly {
		return Review{}, fmt.Errorf("save review: unknown type %q", r.Type)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var list []Review
	if _, err := p.read(keyReviews, &list); err != nil {
		return Review{}, err
	}
	r.ID = p.newID()
	r.Date = p.now().UTC()
	list = append(list, r)
	if err := p.write(keyReviews, list); err != nil {
		return Review{}, fmt.Errorf("save review: %w", err)
	}
	return r, nil
}

// Reviews lists saved reviews of kind, or all of them when kind is empty.
func (p *Planner) Reviews(kind ReviewType) ([]Review, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var list []Review
	if _, err := p.read(keyReviews, &list); err != nil {
		return nil, err
	}
	if kind == "" {
		return list, nil
	}
	out := make([]Review, 0, len(list))
	for _, r := range list {
		if r.Type == kind {
			out = append(out, r)
		}
	}
	return out, nil
}
