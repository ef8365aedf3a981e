package domain

// Region names an independently evictable cache partition.
type Region string

const (
	RegionUsers       Region = "users"
	RegionInstructors Region = "instructors"
	RegionShopItems   Region = "shop-items"
	RegionFacilities  Region = "facilities"
)

func Regions() []Region {
	return []Region{RegionUsers, RegionInstructors, RegionShopItems, RegionFacilities}
}

func (r Region) Valid() bool {
	switch r {
	case RegionUsers, RegionInstructors, RegionShopItems, RegionFacilities:
		return true
	}
	return false
}
