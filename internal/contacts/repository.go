package contacts

import (
	"errors"

	"gorm.io/gorm"

	"addressbook/internal/apierr"
	"addressbook/internal/dbctx"
	"addressbook/internal/logger"
	"addressbook/internal/models"
)

type Filter struct {
	// Search keeps contacts whose name contains it, case-sensitively.
	Search         string
	BookmarkedOnly bool
}

type Repository interface {
	List(dbc dbctx.Context, ownerID uint, f Filter) ([]*models.Contact, error)
	Get(dbc dbctx.Context, contactID, actingUserID uint) (*models.Contact, error)
	Create(dbc dbctx.Context, ownerID uint, in Input) (*models.Contact, error)
	Edit(dbc dbctx.Context, contactID, actingUserID uint, in Input) (*models.Contact, error)
	Delete(dbc dbctx.Context, contactID, actingUserID uint) error
	ToggleBookmark(dbc dbctx.Context, contactID, actingUserID uint) (*models.Contact, error)
	SetBookmarked(dbc dbctx.Context, contactID uint, bookmarked bool) error
	CountByOwner(dbc dbctx.Context, ownerID uint) (int64, error)
}

type repository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepository(db *gorm.DB, baseLog *logger.Logger) Repository {
	return &repository{db: db, log: baseLog.With("repo", "ContactRepository")}
}

func orderedMethods(db *gorm.DB) *gorm.DB {
	return db.Order("contact_method.id ASC")
}

// containsExpr is a case-sensitive substring test with no wildcard
// interpretation of the search term.
func containsExpr(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return "instr(name, ?) > 0"
	}
	return "strpos(name, ?) > 0"
}

func (r *repository) List(dbc dbctx.Context, ownerID uint, f Filter) ([]*models.Contact, error) {
	q := dbc.DB(r.db).
		Preload("Methods", orderedMethods).
		Where("user_id = ?", ownerID)
	if f.Search != "" {
		q = q.Where(containsExpr(r.db), f.Search)
	}
	if f.BookmarkedOnly {
		q = q.Where("bookmarked = ?", true)
	}
	var out []*models.Contact
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	for _, c := range out {
		ensureMethods(c)
	}
	return out, nil
}

// owned loads a contact and applies the not-found then ownership checks.
func owned(tx *gorm.DB, contactID, actingUserID uint) (*models.Contact, error) {
	var c models.Contact
	err := tx.Preload("Methods", orderedMethods).First(&c, contactID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("contact %d", contactID)
	}
	if err != nil {
		return nil, err
	}
	if c.UserID != actingUserID {
		return nil, apierr.Permission("contact %d belongs to another user", contactID)
	}
	ensureMethods(&c)
	return &c, nil
}

func ensureMethods(c *models.Contact) {
	if c.Methods == nil {
		c.Methods = []models.ContactMethod{}
	}
}

func (r *repository) Get(dbc dbctx.Context, contactID, actingUserID uint) (*models.Contact, error) {
	return owned(dbc.DB(r.db), contactID, actingUserID)
}

func insertMethods(tx *gorm.DB, c *models.Contact, methods []MethodInput) error {
	c.Methods = make([]models.ContactMethod, 0, len(methods))
	for _, m := range methods {
		c.Methods = append(c.Methods, models.ContactMethod{ContactID: c.ID, Type: m.Type, Value: m.Value})
	}
	if len(c.Methods) == 0 {
		return nil
	}
	return tx.Create(&c.Methods).Error
}

func (r *repository) Create(dbc dbctx.Context, ownerID uint, in Input) (*models.Contact, error) {
	norm, err := Prepare(in)
	if err != nil {
		return nil, err
	}
	c := &models.Contact{Name: norm.Name, UserID: ownerID}
	err = dbc.Transaction(r.db, func(tx *gorm.DB) error {
		if err := tx.Omit("Methods").Create(c).Error; err != nil {
			return err
		}
		return insertMethods(tx, c, norm.Methods)
	})
	if err != nil {
		return nil, err
	}
	r.log.Debug("contact created", "contact_id", c.ID, "owner_id", ownerID, "methods", len(c.Methods))
	return c, nil
}

func (r *repository) Edit(dbc dbctx.Context, contactID, actingUserID uint, in Input) (*models.Contact, error) {
	var out *models.Contact
	err := dbc.Transaction(r.db, func(tx *gorm.DB) error {
		c, err := owned(tx, contactID, actingUserID)
		if err != nil {
			return err
		}
		norm, err := Prepare(in)
		if err != nil {
			return err
		}
		if err := tx.Model(c).Update("name", norm.Name).Error; err != nil {
			return err
		}
		if err := tx.Where("contact_id = ?", c.ID).Delete(&models.ContactMethod{}).Error; err != nil {
			return err
		}
		if err := insertMethods(tx, c, norm.Methods); err != nil {
			return err
		}
		c.Name = norm.Name
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Delete(dbc dbctx.Context, contactID, actingUserID uint) error {
	return dbc.Transaction(r.db, func(tx *gorm.DB) error {
		c, err := owned(tx, contactID, actingUserID)
		if err != nil {
			return err
		}
		if err := tx.Where("contact_id = ?", c.ID).Delete(&models.ContactMethod{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Contact{}, c.ID).Error
	})
}

func (r *repository) ToggleBookmark(dbc dbctx.Context, contactID, actingUserID uint) (*models.Contact, error) {
	var out *models.Contact
	err := dbc.Transaction(r.db, func(tx *gorm.DB) error {
		c, err := owned(tx, contactID, actingUserID)
		if err != nil {
			return err
		}
		c.Bookmarked = !c.Bookmarked
		if err := tx.Model(c).Update("bookmarked", c.Bookmarked).Error; err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetBookmarked writes the flag without an ownership check; callers must
// have created or verified the contact themselves.
func (r *repository) SetBookmarked(dbc dbctx.Context, contactID uint, bookmarked bool) error {
	return dbc.DB(r.db).Model(&models.Contact{}).Where("id = ?", contactID).Update("bookmarked", bookmarked).Error
}

func (r *repository) CountByOwner(dbc dbctx.Context, ownerID uint) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&models.Contact{}).Where("user_id = ?", ownerID).Count(&n).Error
	return n, err
}
