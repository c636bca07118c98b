package classifier

// Keywords expands the brand table into search terms: every variant, then the
// first two variants of each brand combined with each item term. Order is
// stable and duplicates are dropped.
func Keywords(brands BrandTable, itemTerms []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(kw string) {
		if kw == "" || seen[kw] {
			return
		}
		seen[kw] = true
		out = append(out, kw)
	}

	for _, b := range brands {
		for _, v := range b.Variants {
			add(v)
		}
	}
	for _, b := range brands {
		top := b.Variants
		if len(top) > 2 {
			top = top[:2]
		}
		for _, v := range top {
			for _, term := range itemTerms {
				add(v + " " + term)
			}
		}
	}
	return out
}
