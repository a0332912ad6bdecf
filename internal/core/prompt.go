package core

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"tokoassist/internal/catalog"
)

// Mode selects which system prompt a chat request is answered with.
type Mode string

const (
	ModeInquiry Mode = "inquiry"
	ModeRecipe  Mode = "recipe"
	ModeList    Mode = "list"
)

// ParseMode maps a request's mode tag to a Mode, defaulting to inquiry.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeRecipe:
		return ModeRecipe
	case ModeList:
		return ModeList
	default:
		return ModeInquiry
	}
}

const (
	listSystemPrompt = "You are a shopping assistant. Create a shopping list based on the user's request. " +
		"Format the output as a single, valid JSON object with a key \"shoppingListItems\" which is an array of objects. " +
		"Each object must have \"productName\", \"quantity\", and \"rackLocation\". " +
		"If the rack location is unknown, respond with 'Unknown'. Do not include any other text, explanation, or markdown formatting."

	recipeSystemPrompt = "You are a recipe assistant. Generate a recipe based on the user's request. " +
		"The output must be a single, valid JSON object with keys: \"recipeName\", \"instructions\", \"ingredients\", and \"ingredientLocations\". " +
		"The \"ingredients\" and \"ingredientLocations\" must be arrays of strings of the same length. For locations, use general store areas. " +
		"Do not include any other text, explanation, or markdown formatting."

	noProductKnowledge = "No product information available."
)

var idPrinter = message.NewPrinter(language.Indonesian)

// inquirySystemPrompt grounds the assistant in the current catalog, one
// digest line per product.
func inquirySystemPrompt(products []catalog.Product) string {
	return "You are a helpful AI assistant in a grocery store. Answer in Indonesian.\n\n" +
		"Here is some internal product knowledge:\n" +
		catalogDigest(products) + "\n\n" +
		"When a customer asks for product location, price, or availability, use the information above to answer. " +
		"If the product is not on the list, state that you are unsure but will ask a store employee. Be friendly and helpful."
}

func catalogDigest(products []catalog.Product) string {
	if len(products) == 0 {
		return noProductKnowledge
	}

	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s is in %s and costs Rp%s.",
			p.ProductName, p.RackLocation, formatPrice(p.Price)))
	}
	return strings.Join(lines, "\n")
}

// formatPrice renders a stored price with Indonesian digit grouping, e.g.
// "15000" becomes "15.000". Unparseable values pass through untouched.
func formatPrice(price string) string {
	trimmed := strings.TrimSpace(price)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return idPrinter.Sprintf("%d", n)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return idPrinter.Sprint(number.Decimal(f))
	}
	return price
}
