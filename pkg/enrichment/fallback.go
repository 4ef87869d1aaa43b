package enrichment

import "strings"

var fallbackQuestions = map[string][]string{
	"technical": {
		"Explain the difference between var, let, and const in JavaScript.",
		"How would you optimize a slow database query?",
		"Describe the concept of Big O notation.",
		"What is the difference between REST and GraphQL?",
		"How do you handle error handling in your applications?",
	},
	"behavioral": {
		"Tell me about a time you faced a challenging problem at work.",
		"Describe a situation where you had to work with a difficult team member.",
		"How do you prioritize tasks when you have multiple deadlines?",
		"Tell me about a time you made a mistake and how you handled it.",
		"Describe your ideal work environment.",
	},
	"product": {
		"How would you prioritize features for a new product?",
		"Describe how you would measure the success of a feature.",
		"How do you gather and incorporate user feedback?",
		"Tell me about a time you had to make a decision with incomplete information.",
		"How would you approach launching a product in a new market?",
	},
}

// FallbackQuestions returns a copy of the built-in list for category.
// Unknown categories get the technical list.
func FallbackQuestions(category string) []string {
	list, ok := fallbackQuestions[strings.ToLower(category)]
	if !ok {
		list = fallbackQuestions["technical"]
	}
	return append([]string(nil), list...)
}
