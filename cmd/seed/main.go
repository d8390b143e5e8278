package main

import (
	"fmt"
	"log"
	"time"

	"billetter/internal/events"
	"billetter/internal/seats"
	"billetter/internal/shared/config"
	"billetter/internal/shared/database"
	"billetter/internal/users"

	"github.com/joho/godotenv"
)

// Seeds a load-test dataset: plain-password users, one upcoming event
// and its seat grid. Safe to re-run; existing rows are left alone.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	pg := db.PostgreSQL

	// Users
	for i := 1; i <= 10; i++ {
		email := fmt.Sprintf("user%d@test.local", i)
		var count int64
		pg.Model(&users.User{}).Where("email = ?", email).Count(&count)
		if count > 0 {
			continue
		}

		password := fmt.Sprintf("password%d", i)
		user := users.User{
			Email:         email,
			PasswordHash:  "-",
			PasswordPlain: &password,
			FirstName:     fmt.Sprintf("User%d", i),
			Surname:       "Test",
			IsActive:      true,
			LastLoggedIn:  time.Now().UTC(),
		}
		if err := pg.Create(&user).Error; err != nil {
			log.Fatalf("failed to seed user %s: %v", email, err)
		}
	}
	log.Println("users seeded")

	// Event with a seat grid
	var eventCount int64
	pg.Model(&events.Event{}).Count(&eventCount)
	if eventCount == 0 {
		description := "Главное событие сезона"
		event := events.Event{
			Title:         "Billetter Live",
			Description:   &description,
			Type:          "concert",
			DatetimeStart: time.Now().UTC().Add(30 * 24 * time.Hour),
			Provider:      "internal",
		}
		if err := pg.Create(&event).Error; err != nil {
			log.Fatalf("failed to seed event: %v", err)
		}

		category := "standard"
		var grid []seats.Seat
		for row := 1; row <= 20; row++ {
			for number := 1; number <= 30; number++ {
				price := 2500.0
				if row <= 5 {
					price = 5000.0
				}
				grid = append(grid, seats.Seat{
					EventID:  event.ID,
					Row:      row,
					Number:   number,
					Status:   seats.StatusFree,
					Category: &category,
					Price:    &price,
				})
			}
		}
		if err := pg.CreateInBatches(grid, 200).Error; err != nil {
			log.Fatalf("failed to seed seats: %v", err)
		}
		log.Printf("event %d seeded with %d seats", event.ID, len(grid))
	}

	log.Println("seed completed")
}
