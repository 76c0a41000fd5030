package prompt

import "slices"

const DefaultModel = "models/gemini-1.5-flash-latest"

var models = []string{
	"models/gemini-1.5-flash-latest",
	"models/gemini-1.5-pro-latest",
	"models/gemini-2.0-flash-001",
	"models/gemini-2.5-flash",
	"models/gemini-2.5-pro",
	"models/gemma-3-27b-it",
	"models/gemini-1.0-pro",
}

// Models lists the selectable generation models, default first.
func Models() []string {
	return slices.Clone(models)
}

func KnownModel(model string) bool {
	return slices.Contains(models, model)
}
