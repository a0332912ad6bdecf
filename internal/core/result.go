package core

import (
	"encoding/json"
	"strings"
)

// Recipe is the shape a recipe-mode reply is asked to produce.
type Recipe struct {
	RecipeName          string   `json:"recipeName"`
	Instructions        string   `json:"instructions"`
	Ingredients         []string `json:"ingredients"`
	IngredientLocations []string `json:"ingredientLocations"`
}

// ShoppingListEntry is one suggested item of a list-mode reply.
type ShoppingListEntry struct {
	ProductName  string `json:"productName"`
	Quantity     string `json:"quantity"`
	RackLocation string `json:"rackLocation"`
}

// SuggestedList is the shape a list-mode reply is asked to produce.
type SuggestedList struct {
	ShoppingListItems []ShoppingListEntry `json:"shoppingListItems"`
}

type ReplyKind string

const (
	ReplyRecipe       ReplyKind = "recipe"
	ReplyShoppingList ReplyKind = "list"
	ReplyText         ReplyKind = "text"
)

// AssistantReply is the tagged decode of a complete assistant message:
// exactly one of Recipe, List or Text is populated, per Kind.
type AssistantReply struct {
	Kind   ReplyKind      `json:"kind"`
	Recipe *Recipe        `json:"recipe,omitempty"`
	List   *SuggestedList `json:"list,omitempty"`
	Text   string         `json:"text,omitempty"`
}

// DecodeAssistantReply tries each known reply schema in turn and falls
// back to plain text. Decoding is strict, so JSON of another shape falls
// through instead of half-populating a variant. The chat route never
// applies this to the stream it relays; it exists for consumers of a
// completed reply.
func DecodeAssistantReply(content string) AssistantReply {
	candidate := stripFences(strings.TrimSpace(content))

	var recipe Recipe
	if err := strictUnmarshal(candidate, &recipe); err == nil &&
		recipe.RecipeName != "" &&
		len(recipe.Ingredients) > 0 &&
		len(recipe.Ingredients) == len(recipe.IngredientLocations) {
		return AssistantReply{Kind: ReplyRecipe, Recipe: &recipe}
	}

	var list SuggestedList
	if err := strictUnmarshal(candidate, &list); err == nil &&
		len(list.ShoppingListItems) > 0 {
		return AssistantReply{Kind: ReplyShoppingList, List: &list}
	}

	return AssistantReply{Kind: ReplyText, Text: content}
}

func strictUnmarshal(data string, v any) error {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// stripFences removes a surrounding markdown code fence. The prompts
// forbid fences but models add them anyway often enough to tolerate.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
