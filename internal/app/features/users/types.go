// internal/app/features/users/types.go
package users

import (
	"github.com/fiscora/fiscora/internal/app/system/formutil"
	"github.com/fiscora/fiscora/internal/app/system/status"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
)

type listRow struct {
	ID        string
	FullName  string
	Email     string
	Role      string
	Status    string
	OrgNames  []string
	LastLogin string
	CanManage bool
}

type listData struct {
	viewdata.BaseVM
	Q         string
	Rows      []listRow
	Total     int64
	CanCreate bool
}

type orgOption struct {
	ID       string
	Name     string
	Selected bool
}

type formPageData struct {
	formutil.Base
	UserID     string
	FullName   string
	Email      string
	Role       string
	Status     string
	AuthMethod string
	Roles      []string
	Statuses   []string
	Orgs       []orgOption
	IsEdit     bool
}

// statuses offered on the account forms.
var statuses = []string{status.Active, status.Disabled}
