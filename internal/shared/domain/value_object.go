package domain

// ValueObject is an immutable concept compared by its attributes.
type ValueObject interface {
	Equals(other ValueObject) bool
}
