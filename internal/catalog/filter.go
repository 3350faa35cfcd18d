package catalog

// MediaFilter specifies criteria for listing media. Nil fields don't filter.
type MediaFilter struct {
	UserID   *int64  // whose progress to join
	Query    *string // case-insensitive title substring
	Category *string // exact match
	Limit    int     // 0 = no limit
	Offset   int
}
