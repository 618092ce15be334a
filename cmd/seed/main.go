package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/booking-availability/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	providers, err := seedProviders(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed providers: %v", err)
	}
	customers, err := seedCustomers(context.Background(), pool, 2000)
	if err != nil {
		log.Fatalf("seed customers: %v", err)
	}
	if err := seedBookings(context.Background(), pool, providers, customers, 5000); err != nil {
		log.Fatalf("seed bookings: %v", err)
	}

	log.Println("seed complete")
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d providers", count)

	specialties := []string{
		"Home Nursing",
		"Physiotherapy",
		"Elderly Care",
		"Post-Operative Care",
		"Maternal Care",
		"Palliative Care",
		"Occupational Therapy",
		"Speech Therapy",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		specialty := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO providers (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, specialty)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("providers seeded")
	return ids, nil
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d customers", count)

	const batchSize = 500
	ids := make([]uuid.UUID, 0, count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			emergency := fmt.Sprintf("%s (%s)", gofakeit.Name(), gofakeit.Phone())

			_, err := tx.Exec(ctx, `
				INSERT INTO customers (id, name, phone, address, emergency_contact, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, now(), now())
			`, id, gofakeit.Name(), gofakeit.Phone(), gofakeit.Address().Address, emergency)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("customers seeded: %d/%d", end, count)
	}

	return ids, nil
}

func seedBookings(ctx context.Context, pool *pgxpool.Pool, providers, customers []uuid.UUID, count int) error {
	log.Printf("seeding %d bookings", count)

	services := []string{
		"Home Visit",
		"Physio Session",
		"Wound Dressing",
		"Mobility Assessment",
		"Medication Review",
		"Wellness Check",
	}
	statuses := []string{"pending", "confirmed", "confirmed", "in_progress", "completed", "cancelled"}

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			customerID := customers[gofakeit.Number(0, len(customers)-1)]
			status := statuses[gofakeit.Number(0, len(statuses)-1)]

			// Pending bookings have no provider yet; everything else does.
			var providerID *uuid.UUID
			if status != "pending" {
				p := providers[gofakeit.Number(0, len(providers)-1)]
				providerID = &p
			}

			date := time.Now().AddDate(0, 0, gofakeit.Number(-14, 14)).Format("2006-01-02")
			start := fmt.Sprintf("%02d:%02d", gofakeit.Number(7, 18), 15*gofakeit.Number(0, 3))
			duration := float64(gofakeit.Number(1, 6)) * 0.5

			_, err := tx.Exec(ctx, `
				INSERT INTO bookings (id, provider_id, customer_id, service_name,
					scheduled_date, scheduled_time, duration_hours, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, now(), now())
			`, id, providerID, customerID,
				services[gofakeit.Number(0, len(services)-1)],
				date, start, duration, status)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("bookings seeded: %d/%d", end, count)
	}

	log.Println("bookings seeded")
	return nil
}
