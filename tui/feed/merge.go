package feed

import "github.com/CrestNiraj12/terminalmeme/domain"

// mergeFeed composes the browse view: buffered new items first, then the
// backbone, minus deleted ids, with live vote counts applied.
func mergeFeed(backbone []domain.Entry, newItems []domain.Item, deleted map[string]struct{}, votes map[string]domain.VoteUpdate) []domain.Entry {
	paginated := make(map[string]struct{}, len(backbone))
	for _, e := range backbone {
		if e.Item != nil {
			paginated[e.Item.ID] = struct{}{}
		}
	}

	out := make([]domain.Entry, 0, len(newItems)+len(backbone))
	for _, it := range newItems {
		if _, ok := paginated[it.ID]; ok {
			continue
		}
		out = append(out, domain.ItemEntry(it))
	}
	out = append(out, backbone...)

	out = dropDeleted(out, deleted)
	out = dedupe(out)
	return applyVotes(out, votes)
}

// mergeSearch composes search results. New items and separators never appear.
func mergeSearch(results []domain.Entry, deleted map[string]struct{}, votes map[string]domain.VoteUpdate) []domain.Entry {
	out := dropDeleted(stripSeparators(results), deleted)
	out = dedupe(out)
	return applyVotes(out, votes)
}

// dropDeleted removes deleted items. Separators pass through.
func dropDeleted(entries []domain.Entry, deleted map[string]struct{}) []domain.Entry {
	if len(deleted) == 0 {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		if e.Item != nil {
			if _, ok := deleted[e.Item.ID]; ok {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// dedupe keeps the first entry per key, so no two rows share an effective id.
// Separators left leading, trailing or doubled up by deletions collapse.
func dedupe(entries []domain.Entry) []domain.Entry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsSeparator() {
			switch {
			case len(out) == 0:
			case out[len(out)-1].IsSeparator():
				out[len(out)-1] = e
			default:
				out = append(out, e)
			}
			continue
		}
		if e.Item == nil {
			continue
		}
		k := e.Item.EffectiveID()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	if n := len(out); n > 0 && out[n-1].IsSeparator() {
		out = out[:n-1]
	}
	return out
}

// applyVotes overlays live counts. Entries without a differing update keep
// their pointer so unchanged rows compare equal across merges.
func applyVotes(entries []domain.Entry, votes map[string]domain.VoteUpdate) []domain.Entry {
	if len(votes) == 0 {
		return entries
	}
	out := make([]domain.Entry, len(entries))
	for i, e := range entries {
		out[i] = e
		if e.Item == nil {
			continue
		}
		u, ok := votes[e.Item.ID]
		if !ok || u.Upvotes == e.Item.Upvotes {
			continue
		}
		it := *e.Item
		it.Upvotes = u.Upvotes
		out[i] = domain.Entry{Item: &it}
	}
	return out
}
