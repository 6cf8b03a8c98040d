package request

const DefaultPageSize = 10

type ListUsers struct {
	Limit      int    `validate:"gte=0,lte=100"`
	StartAfter string `validate:"max=128"`
}

// SetRoles changes only the roles that are present.
type SetRoles struct {
	Admin *bool `validate:"required_without=Clean" json:"admin"`
	Clean *bool `validate:"required_without=Admin" json:"clean"`
}
