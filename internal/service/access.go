package service

// Access describes the caller as established by the identity middleware.
// A nil UserID means an anonymous caller.
type Access struct {
	UserID     *uint
	Staff      bool
	Email      string
	CartHandle string
}

func (a Access) Authenticated() bool { return a.UserID != nil }

func (a Access) Is(userID *uint) bool {
	return a.UserID != nil && userID != nil && *a.UserID == *userID
}

func Anonymous() Access { return Access{} }

func User(id uint) Access { return Access{UserID: &id} }

func Staff(id uint) Access { return Access{UserID: &id, Staff: true} }
