package qbimport

import (
	"context"
	"fmt"
	"strings"

	"github.com/aiengrshafiq/QuickBooksImporter/models"
	"github.com/aiengrshafiq/QuickBooksImporter/qbclient"
	"github.com/aiengrshafiq/QuickBooksImporter/utils"
	"gorm.io/gorm"
)

// Every imported document is attributed to these fixed rows.
const (
	DefaultProjectName = "Default Imported Project"
	DefaultUserEmail   = "import_admin@yourcompany.com"

	// Placeholder credential; the importer user is never used for login.
	defaultUserPassword = "!!!SET-A-DUMMY-PASSWORD-HERE!!!"
)

// ImportDefaults carries the default project and importer user, resolved once
// at run start and threaded through the whole run.
type ImportDefaults struct {
	Project models.Project
	User    models.User
}

// ResolveImportDefaults finds or creates the default rows in their own
// transaction so they survive per-invoice rollbacks.
func ResolveImportDefaults(ctx context.Context, db *gorm.DB) (ImportDefaults, error) {
	var defaults ImportDefaults
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		defaults.Project = models.Project{Name: DefaultProjectName}
		if err := tx.Where(models.Project{Name: DefaultProjectName}).
			FirstOrCreate(&defaults.Project).Error; err != nil {
			return err
		}

		defaults.User = models.User{Email: DefaultUserEmail}
		if err := tx.Where(models.User{Email: DefaultUserEmail}).
			Attrs(models.User{HashedPassword: defaultUserPassword}).
			FirstOrCreate(&defaults.User).Error; err != nil {
			return err
		}
		return nil
	})
	return defaults, err
}

// getOrCreateSupplier resolves a supplier row by display name. The row is
// created on first sighting and returned untouched afterwards; remote field
// changes are deliberately not synced back.
func getOrCreateSupplier(tx *gorm.DB, vendor *qbclient.Vendor) (*models.Supplier, error) {
	name := strings.TrimSpace(vendor.DisplayName)
	if name == "" {
		return nil, fmt.Errorf("vendor %s has no DisplayName", vendor.Id)
	}

	supplier := models.Supplier{Name: name}
	err := tx.Where(models.Supplier{Name: name}).
		Attrs(models.Supplier{
			Email: vendor.EmailAddress(),
			Phone: utils.NormalizePhoneNumber(vendor.PhoneNumber()),
		}).
		FirstOrCreate(&supplier).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// getOrCreateMaterial resolves a material row by item name, deriving the
// unit-of-measure from the remote item type.
func getOrCreateMaterial(tx *gorm.DB, item *qbclient.Item) (*models.Material, error) {
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return nil, fmt.Errorf("item %s has no Name", item.Id)
	}

	material := models.Material{Name: name}
	err := tx.Where(models.Material{Name: name}).
		Attrs(models.Material{Unit: materialUnitForItemType(item.Type)}).
		FirstOrCreate(&material).Error
	if err != nil {
		return nil, err
	}
	return &material, nil
}

func materialUnitForItemType(itemType string) string {
	switch itemType {
	case "Service":
		return models.MaterialUnitService
	case "Inventory":
		return models.MaterialUnitEach
	default:
		return models.MaterialUnitNos
	}
}
