package chart

// CategoryRows is one category and its rows in source order.
type CategoryRows struct {
	Name string
	Rows []Row
}

// Panel is one trellis panel with its ordered categories.
type Panel struct {
	Name       string
	Categories []CategoryRows
}

// GroupByCategory partitions rows into categories ordered by order.
// Categories missing from order follow in first-seen order; names in order
// with no rows still produce an empty category so axis slots line up.
func GroupByCategory(rows []Row, order []string) []CategoryRows {
	index := make(map[string]int, len(order))
	out := make([]CategoryRows, 0, len(order))
	for _, name := range order {
		if _, dup := index[name]; dup {
			continue
		}
		index[name] = len(out)
		out = append(out, CategoryRows{Name: name})
	}
	for _, r := range rows {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, CategoryRows{Name: r.Category})
		}
		out[i].Rows = append(out[i].Rows, r)
	}
	return out
}

// GroupByTrellis splits rows into panels in first-seen panel order, then
// groups each panel by category using the shared category order.
func GroupByTrellis(rows []Row, order []string) []Panel {
	var names []string
	byPanel := make(map[string][]Row)
	for _, r := range rows {
		if _, ok := byPanel[r.Trellis]; !ok {
			names = append(names, r.Trellis)
		}
		byPanel[r.Trellis] = append(byPanel[r.Trellis], r)
	}
	panels := make([]Panel, 0, len(names))
	for _, name := range names {
		panels = append(panels, Panel{Name: name, Categories: GroupByCategory(byPanel[name], order)})
	}
	return panels
}

// Reorder permutes categories to follow order. The input is not modified.
func Reorder(categories []CategoryRows, order []string) []CategoryRows {
	pos := make(map[string]int, len(categories))
	for i, c := range categories {
		pos[c.Name] = i
	}
	used := make([]bool, len(categories))
	out := make([]CategoryRows, 0, len(categories))
	for _, name := range order {
		if i, ok := pos[name]; ok && !used[i] {
			used[i] = true
			out = append(out, categories[i])
		}
	}
	for i, c := range categories {
		if !used[i] {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the category names in order.
func Names(categories []CategoryRows) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.Name
	}
	return out
}

// AnyMarked reports whether at least one row in any category is marked.
func AnyMarked(categories []CategoryRows) bool {
	for _, c := range categories {
		for _, r := range c.Rows {
			if r.Marked {
				return true
			}
		}
	}
	return false
}
