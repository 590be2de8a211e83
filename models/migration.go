package models

import (
	"log"

	"bitbucket.org/mmdatafocus/stockroom_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Item{},
		&Purchase{}, &PurchaseLineItem{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
