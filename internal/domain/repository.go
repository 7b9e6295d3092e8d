package domain

// Repository identifies one source repository inside a configured
// organization. The collector enumerates these before fetching events.
type Repository struct {
	Org       string
	Name      string
	FullName  string
	IsPrivate bool
	Fork      bool
	Archived  bool
}
