package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tripmate/travel-platform/internal/model"
)

var quickPrompts = []model.PromptCategory{
	{Category: "flights", Prompts: []string{
		"What's the best time to book international flights?",
		"How to find the cheapest flights to Europe?",
		"What should I do if my flight gets canceled?",
	}},
	{Category: "trains", Prompts: []string{
		"Compare high-speed trains vs flights in Europe",
		"What's the most scenic train route in Switzerland?",
		"Tips for overnight train travel",
	}},
	{Category: "buses", Prompts: []string{
		"Are sleeper buses comfortable for long journeys?",
		"Best bus companies for traveling in Southeast Asia",
		"How to prepare for a long bus journey",
	}},
	{Category: "cars", Prompts: []string{
		"Should I get full coverage insurance for a rental car?",
		"Tips for an international road trip",
		"How to find the best car rental deals",
	}},
}

// QuickPrompts returns the suggested questions grouped by transport mode.
func QuickPrompts() []model.PromptCategory {
	out := make([]model.PromptCategory, len(quickPrompts))
	for i, c := range quickPrompts {
		out[i] = model.PromptCategory{Category: c.Category, Prompts: append([]string(nil), c.Prompts...)}
	}
	return out
}

// PromptParams fills a travel prompt template. Each template uses a subset.
type PromptParams struct {
	Destination string `json:"destination,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Days        int    `json:"days,omitempty"`
	Style       string `json:"style,omitempty"`
	Season      string `json:"season,omitempty"`
}

type promptTemplate struct {
	params []string
	render func(p PromptParams) string
}

var travelPrompts = map[string]promptTemplate{
	"destinationInfo": {
		params: []string{"destination"},
		render: func(p PromptParams) string {
			return fmt.Sprintf("Tell me about %s as a travel destination. Include key attractions, best time to visit, and travel tips.", p.Destination)
		},
	},
	"itinerarySuggestion": {
		params: []string{"destination", "days"},
		render: func(p PromptParams) string {
			return fmt.Sprintf("Create a %d-day itinerary for %s with day-by-day activities and sights.", p.Days, p.Destination)
		},
	},
	"budgetEstimate": {
		params: []string{"destination", "days", "style"},
		render: func(p PromptParams) string {
			return fmt.Sprintf("Estimate a %s budget for a %d-day trip to %s. Include accommodation, food, transportation, and activities.", p.Style, p.Days, p.Destination)
		},
	},
	"packingList": {
		params: []string{"destination", "season", "days"},
		render: func(p PromptParams) string {
			return fmt.Sprintf("Create a packing list for a %d-day trip to %s during %s.", p.Days, p.Destination, p.Season)
		},
	},
	"localCuisine": {
		params: []string{"destination"},
		render: func(p PromptParams) string {
			return fmt.Sprintf("What are the must-try local foods and restaurants in %s?", p.Destination)
		},
	},
	"transportationAdvice": {
		params: []string{"origin", "destination"},
		render: func(p PromptParams) string {
			return fmt.Sprintf("What's the best way to travel from %s to %s? Compare options like flights, trains, buses, and driving.", p.Origin, p.Destination)
		},
	},
}

// PromptTemplate describes a template for clients.
type PromptTemplate struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
}

// PromptTemplates lists the travel prompt templates by name.
func PromptTemplates() []PromptTemplate {
	out := make([]PromptTemplate, 0, len(travelPrompts))
	for name, t := range travelPrompts {
		out = append(out, PromptTemplate{Name: name, Params: append([]string(nil), t.params...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RenderPrompt fills the named template. Missing parameters are a validation error.
func RenderPrompt(name string, p PromptParams) (string, error) {
	t, ok := travelPrompts[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q: %w", name, model.ErrValidation)
	}
	var missing []string
	for _, param := range t.params {
		switch param {
		case "destination":
			if strings.TrimSpace(p.Destination) == "" {
				missing = append(missing, param)
			}
		case "origin":
			if strings.TrimSpace(p.Origin) == "" {
				missing = append(missing, param)
			}
		case "days":
			if p.Days <= 0 {
				missing = append(missing, param)
			}
		case "style":
			if strings.TrimSpace(p.Style) == "" {
				missing = append(missing, param)
			}
		case "season":
			if strings.TrimSpace(p.Season) == "" {
				missing = append(missing, param)
			}
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %q needs %s: %w", name, strings.Join(missing, ", "), model.ErrValidation)
	}
	return t.render(p), nil
}
