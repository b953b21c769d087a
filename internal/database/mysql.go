package database

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"chatsync/internal/models"
)

func ConnectMySQL(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

// Migrate creates or updates every persisted table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.BlockRelation{},
		&models.ConversationDeletion{},
	)
}
