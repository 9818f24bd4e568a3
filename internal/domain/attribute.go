package domain

// AttributeKind distinguishes the user-owned labels attached to recipes.
type AttributeKind string

const (
	KindTag        AttributeKind = "tag"
	KindIngredient AttributeKind = "ingredient"
)

// Valid reports whether k is a known kind.
func (k AttributeKind) Valid() bool {
	return k == KindTag || k == KindIngredient
}

// Plural returns the collection name used in routes.
func (k AttributeKind) Plural() string {
	switch k {
	case KindTag:
		return "tags"
	case KindIngredient:
		return "ingredients"
	default:
		return string(k)
	}
}

// Attribute is a tag or an ingredient.
type Attribute struct {
	ID     string
	UserID string
	Kind   AttributeKind
	Name   string
}
