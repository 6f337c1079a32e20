package pet

import "context"

// PetRepository resolves pet references.
type PetRepository interface {
	FindByID(ctx context.Context, id int64) (*Pet, error)
	// FindByIDs returns the pets in id order, or a NotFound error naming the first missing id.
	FindByIDs(ctx context.Context, ids []int64) ([]*Pet, error)
	FindByOwnerID(ctx context.Context, ownerID int64) ([]*Pet, error)
	Save(ctx context.Context, pet *Pet) error
}
