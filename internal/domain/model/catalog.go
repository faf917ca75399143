package model

// Team is a league team with its display colours.
type Team struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	TextColor string `json:"text_color"`
}

// Catalog is the fixed set of teams that can be selected.
type Catalog []Team

// DefaultCatalog is the league's team list in selection order.
var DefaultCatalog = Catalog{
	{Name: "Vikings", Color: "#ef4444", TextColor: "#ffffff"},
	{Name: "Dragons", Color: "#3b82f6", TextColor: "#ffffff"},
	{Name: "Elites", Color: "#111827", TextColor: "#ffffff"},
	{Name: "Lions", Color: "#22c55e", TextColor: "#ffffff"},
	{Name: "Warriors", Color: "#eab308", TextColor: "#000000"},
	{Name: "Falcons", Color: "#6b7280", TextColor: "#ffffff"},
}

// Lookup finds a team by name.
func (c Catalog) Lookup(name string) (Team, bool) {
	for _, t := range c {
		if t.Name == name {
			return t, true
		}
	}
	return Team{}, false
}

// Contains reports whether name is in the catalog.
func (c Catalog) Contains(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Names lists team names in catalog order.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for _, t := range c {
		out = append(out, t.Name)
	}
	return out
}
