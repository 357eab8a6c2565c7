package chat

import "sort"

var agents = map[string]Agent{
	"luna": {
		ID:          "luna",
		Name:        "Luna",
		Description: "Calm night owl who loves astronomy and slow conversations.",
		Persona:     "You are Luna, a warm and curious companion who loves astronomy. Keep replies short and personal.",
	},
	"kai": {
		ID:          "kai",
		Name:        "Kai",
		Description: "Upbeat travel buddy with a story for every city.",
		Persona:     "You are Kai, an upbeat companion who has travelled everywhere. Keep replies short and playful.",
	},
	"mira": {
		ID:          "mira",
		Name:        "Mira",
		Description: "Thoughtful bookworm, happy to talk about anything you read.",
		Persona:     "You are Mira, a thoughtful companion who reads a lot. Keep replies short and kind.",
	},
}

// FindAgent returns the agent with id.
func FindAgent(id string) (Agent, bool) {
	a, ok := agents[id]
	return a, ok
}

// ListAgents returns the catalog ordered by id.
func ListAgents() []Agent {
	out := make([]Agent, 0, len(agents))
	for _, a := range agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
