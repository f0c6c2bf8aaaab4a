// internal/app/features/organizations/types.go
package organizations

import (
	"github.com/fiscora/fiscora/internal/app/system/formutil"
	"github.com/fiscora/fiscora/internal/app/system/viewdata"
	"github.com/fiscora/fiscora/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listItem is a single row in the organizations list.
type listItem struct {
	ID          primitive.ObjectID
	Name        string
	Country     string
	Plan        string
	Members     int64
	Admins      int64
	Departments int64
	CanManage   bool
}

// listData is the view model for the organizations list page.
type listData struct {
	viewdata.BaseVM
	Q         string
	Items     []listItem
	Total     int64
	CanCreate bool
}

// newData is the view model for the "New Organization" page.
type newData struct {
	formutil.Base
	Name        string
	Description string
	Country     string
	Currency    string
}

// viewData is the view model for the organization detail page.
type viewData struct {
	viewdata.BaseVM
	Org         models.Organization
	Counts      countsRow
	Departments []models.Department
	AdminNames  []string
	CanManage   bool
}

type countsRow struct {
	Members     int64
	Admins      int64
	Departments int64
}

// editData is the view model for the "Edit Organization" page.
type editData struct {
	formutil.Base
	ID              string
	Name            string
	Description     string
	Country         string
	Currency        string
	FiscalYearStart string
	ApprovalWF      bool
	MultiCurrency   bool
	Compliance      bool
}
