package errclass

// Category is one of the fixed failure kinds.
type Category string

const (
	CategoryOllama     Category = "OLLAMA"
	CategoryAPI        Category = "API"
	CategoryModel      Category = "MODEL"
	CategoryDatabase   Category = "DATABASE"
	CategoryNetwork    Category = "NETWORK"
	CategoryPermission Category = "PERMISSION"
	CategoryValidation Category = "VALIDATION"
	CategoryGeneral    Category = "GENERAL"
)

// Categories lists every category in classification order.
func Categories() []Category {
	return []Category{
		CategoryOllama,
		CategoryAPI,
		CategoryModel,
		CategoryDatabase,
		CategoryNetwork,
		CategoryPermission,
		CategoryValidation,
		CategoryGeneral,
	}
}

// Valid reports whether c is part of the taxonomy.
func (c Category) Valid() bool {
	switch c {
	case CategoryOllama, CategoryAPI, CategoryModel, CategoryDatabase,
		CategoryNetwork, CategoryPermission, CategoryValidation, CategoryGeneral:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// Suggestion returns the remediation hint for the category.
func (c Category) Suggestion() string {
	switch c {
	case CategoryOllama:
		return "Make sure Ollama is installed and running, then try again."
	case CategoryAPI:
		return "Check the API configuration, especially the port and proxy settings."
	case CategoryModel:
		return "Verify the model name and that it has finished downloading."
	case CategoryDatabase:
		return "Restart the application. If the problem persists, check the data directory."
	case CategoryNetwork:
		return "Check your network connection and try again."
	case CategoryPermission:
		return "Check that the application has permission to access the required resources."
	case CategoryValidation:
		return "Review the highlighted fields and correct the input."
	default:
		return "Try again. If the problem persists, check the application logs."
	}
}
