package parse

import "specindex/internal/model"

// BuildTree populates ParentAnchor/PrevAnchor/NextAnchor across a flat,
// document-order section list. sections is modified and returned in place.
func BuildTree(sections []model.Section) []model.Section {
	for i := range sections {
		sections[i].ParentAnchor = findParent(sections, i)
	}
	linkSiblings(sections)
	return sections
}

// findParent implements the two parent rules: a heading's parent is the
// nearest preceding heading with a strictly smaller depth; any other
// section's parent is the nearest preceding heading of any depth.
func findParent(sections []model.Section, i int) string {
	s := sections[i]
	for j := i - 1; j >= 0; j-- {
		if sections[j].Kind != model.KindHeading {
			continue
		}
		if s.Kind == model.KindHeading {
			if sections[j].Depth < s.Depth {
				return sections[j].Anchor
			}
			continue
		}
		return sections[j].Anchor
	}
	return ""
}

// linkSiblings links prev/next among sections sharing a parent and the same
// depth category: heading siblings must also share depth; non-heading
// siblings are linked regardless of kind.
func linkSiblings(sections []model.Section) {
	type key struct {
		parent   string
		category string
	}
	groups := make(map[key][]int)
	for i, s := range sections {
		cat := "other"
		if s.Kind == model.KindHeading {
			cat = "heading"
		}
		k := key{parent: s.ParentAnchor, category: cat}
		if cat == "heading" {
			k.category = headingCategory(s.Depth)
		}
		groups[k] = append(groups[k], i)
	}
	for _, idxs := range groups {
		for n, i := range idxs {
			if n > 0 {
				sections[i].PrevAnchor = sections[idxs[n-1]].Anchor
			}
			if n < len(idxs)-1 {
				sections[i].NextAnchor = sections[idxs[n+1]].Anchor
			}
		}
	}
}

func headingCategory(depth int) string {
	switch depth {
	case 2:
		return "heading:2"
	case 3:
		return "heading:3"
	case 4:
		return "heading:4"
	case 5:
		return "heading:5"
	case 6:
		return "heading:6"
	default:
		return "heading:0"
	}
}
