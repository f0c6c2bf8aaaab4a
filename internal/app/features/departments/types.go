// internal/app/features/departments/types.go
package departments

import (
	"github.com/fiscora/fiscora/internal/app/system/formutil"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/fiscora/fiscora/internal/domain/models"
)

type memberOption struct {
	ID    string
	Name  string
	Email string
}

type listRow struct {
	ID          string
	Name        string
	Description string
	ManagerName string
	Members     int
	CanEdit     bool
}

type listData struct {
	viewdata.BaseVM
	Org       models.Organization
	Rows      []listRow
	CanCreate bool
}

type viewPageData struct {
	viewdata.BaseVM
	Org         models.Organization
	Dept        models.Department
	ManagerName string
	Members     []memberOption
	BudgetLimit string
	CanEdit     bool
	CanManage   bool
}

type formData struct {
	formutil.Base
	Org         models.Organization
	DeptID      string
	Name        string
	Description string
	ManagerID   string
	MemberIDs   map[string]bool
	BudgetLimit string
	Options     []memberOption
	IsEdit      bool
}
