package client

import (
	"log"
	"marketplace-checkout/internal/model"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func InitSqliteClient(databaseURL string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(databaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.User{},
		&model.Listing{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.LocalPaymentMethod{},
		&model.RegionLookup{},
	); err != nil {
		log.Fatal(err)
	}

	return db
}
