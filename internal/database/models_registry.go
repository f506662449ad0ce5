package database

import "tipa/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Member{},
		&models.Thread{},
		&models.Comment{},
		&models.Event{},
		&models.EventRSVP{},
		&models.Invite{},
		&models.Payment{},
		&models.Resource{},
	}
}
