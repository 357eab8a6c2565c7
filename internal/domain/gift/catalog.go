package gift

var catalog = []Gift{
	{ID: "rose", Name: "Rose", Price: 10},
	{ID: "coffee", Name: "Coffee", Price: 20},
	{ID: "teddy", Name: "Teddy bear", Price: 50},
	{ID: "ring", Name: "Ring", Price: 200},
	{ID: "castle", Name: "Castle", Price: 1000},
}

// Catalog returns every gift, cheapest first.
func Catalog() []Gift {
	return append([]Gift(nil), catalog...)
}

// Find looks a gift up by id.
func Find(id string) (Gift, bool) {
	for _, g := range catalog {
		if g.ID == id {
			return g, true
		}
	}
	return Gift{}, false
}
