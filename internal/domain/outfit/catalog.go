package outfit

var catalog = []Outfit{
	{ID: "luna-starlight", AgentID: "luna", Name: "Starlight dress", Price: 120},
	{ID: "luna-hoodie", AgentID: "luna", Name: "Observatory hoodie", Price: 60},
	{ID: "kai-explorer", AgentID: "kai", Name: "Explorer jacket", Price: 80},
	{ID: "kai-beach", AgentID: "kai", Name: "Beach day", Price: 40},
	{ID: "mira-library", AgentID: "mira", Name: "Library cardigan", Price: 60},
	{ID: "mira-gala", AgentID: "mira", Name: "Gala gown", Price: 150},
}

// Find looks an outfit up by id.
func Find(id string) (Outfit, bool) {
	for _, o := range catalog {
		if o.ID == id {
			return o, true
		}
	}
	return Outfit{}, false
}
