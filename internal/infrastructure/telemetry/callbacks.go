package telemetry

import (
	"errors"

	"gorm.io/gorm"
)

// registerAround installs before and after hooks named prefix:* around every
// gorm operation
func registerAround(db *gorm.DB, prefix string, before, after func(*gorm.DB)) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register(prefix+":before_create", before),
		cb.Query().Before("gorm:query").Register(prefix+":before_query", before),
		cb.Update().Before("gorm:update").Register(prefix+":before_update", before),
		cb.Delete().Before("gorm:delete").Register(prefix+":before_delete", before),
		cb.Row().Before("gorm:row").Register(prefix+":before_row", before),
		cb.Raw().Before("gorm:raw").Register(prefix+":before_raw", before),

		cb.Create().After("gorm:create").Register(prefix+":after_create", after),
		cb.Query().After("gorm:query").Register(prefix+":after_query", after),
		cb.Update().After("gorm:update").Register(prefix+":after_update", after),
		cb.Delete().After("gorm:delete").Register(prefix+":after_delete", after),
		cb.Row().After("gorm:row").Register(prefix+":after_row", after),
		cb.Raw().After("gorm:raw").Register(prefix+":after_raw", after),
	)
}
