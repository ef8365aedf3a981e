package service

import (
	"fmt"

	"github.com/rl1809/fitforfun/internal/core/domain"
)

func on(e domain.EntityType, k domain.MutationKind) domain.Mutation {
	return domain.Mutation{Entity: e, Kind: k}
}

var (
	usersOnly        = []domain.Region{domain.RegionUsers}
	facilityViews    = []domain.Region{domain.RegionFacilities, domain.RegionInstructors}
	instructorViews  = []domain.Region{domain.RegionInstructors, domain.RegionFacilities}
	instructorLife   = []domain.Region{domain.RegionInstructors, domain.RegionFacilities, domain.RegionUsers}
	shopItemsOnly    = []domain.Region{domain.RegionShopItems}
	instructorsOnly  = []domain.Region{domain.RegionInstructors}
	cartAndShopItems = []domain.Region{domain.RegionUsers, domain.RegionShopItems}
)

// rules maps every mutation the services issue to the regions it evicts.
var rules = map[domain.Mutation][]domain.Region{
	on(domain.EntityCart, domain.MutationAddItem):       cartAndShopItems,
	on(domain.EntityCart, domain.MutationRemoveItem):    usersOnly,
	on(domain.EntityCart, domain.MutationIncrementItem): usersOnly,
	on(domain.EntityCart, domain.MutationDecrementItem): usersOnly,

	on(domain.EntityUser, domain.MutationCreate):         usersOnly,
	on(domain.EntityUser, domain.MutationPasswordChange): usersOnly,
	on(domain.EntityUser, domain.MutationUpdate):         {domain.RegionUsers, domain.RegionInstructors},
	on(domain.EntityUser, domain.MutationDelete):         {domain.RegionUsers, domain.RegionInstructors, domain.RegionFacilities},

	on(domain.EntityInstructor, domain.MutationCreate):  instructorLife,
	on(domain.EntityInstructor, domain.MutationDelete):  instructorLife,
	on(domain.EntityInstructor, domain.MutationUpdate):  instructorViews,
	on(domain.EntityInstructor, domain.MutationComment): instructorsOnly,
	on(domain.EntityInstructor, domain.MutationImage):   instructorsOnly,

	on(domain.EntityFacility, domain.MutationCreate):        facilityViews,
	on(domain.EntityFacility, domain.MutationUpdate):        facilityViews,
	on(domain.EntityFacility, domain.MutationDelete):        facilityViews,
	on(domain.EntityFacility, domain.MutationComment):       facilityViews,
	on(domain.EntityFacility, domain.MutationImage):         facilityViews,
	on(domain.EntityFacility, domain.MutationAddInstructor): facilityViews,

	on(domain.EntityShopItem, domain.MutationCreate):  shopItemsOnly,
	on(domain.EntityShopItem, domain.MutationUpdate):  shopItemsOnly,
	on(domain.EntityShopItem, domain.MutationComment): shopItemsOnly,
	on(domain.EntityShopItem, domain.MutationImage):   shopItemsOnly,
	on(domain.EntityShopItem, domain.MutationDelete):  {domain.RegionShopItems, domain.RegionUsers},
}

// Regions returns the regions evicted by mutation. A mutation without a rule
// is a programming error and panics.
func Regions(mutation domain.Mutation) []domain.Region {
	regions, ok := rules[mutation]
	if !ok {
		panic(fmt.Sprintf("service: no invalidation rule for %s", mutation))
	}
	out := make([]domain.Region, len(regions))
	copy(out, regions)
	return out
}
