package domain

type EntityType string

const (
	EntityUser       EntityType = "user"
	EntityInstructor EntityType = "instructor"
	EntityFacility   EntityType = "facility"
	EntityShopItem   EntityType = "shop-item"
	EntityCart       EntityType = "cart"
)

type MutationKind string

const (
	MutationCreate         MutationKind = "create"
	MutationUpdate         MutationKind = "update"
	MutationDelete         MutationKind = "delete"
	MutationPasswordChange MutationKind = "password-change"
	MutationComment        MutationKind = "comment"
	MutationImage          MutationKind = "image"
	MutationAddInstructor  MutationKind = "add-instructor"
	MutationAddItem        MutationKind = "add-item"
	MutationRemoveItem     MutationKind = "remove-item"
	MutationIncrementItem  MutationKind = "increment-item"
	MutationDecrementItem  MutationKind = "decrement-item"
)

// Mutation identifies a write for cache invalidation purposes.
type Mutation struct {
	Entity EntityType
	Kind   MutationKind
}

func (m Mutation) String() string {
	return string(m.Entity) + ":" + string(m.Kind)
}
