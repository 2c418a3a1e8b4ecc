// Command seed writes historical energy records directly into the store
// using the legacy seasonal-band curve. It exists for dashboard development
// against a realistic history and is intentionally separate from the
// service's runtime generation path: the two curves must not be mixed.
package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/logger"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/repository"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/service"
)

func main() {
	var (
		days    = flag.Int("days", 30, "number of past days to seed, ending yesterday")
		serials = flag.String("serials", "SEED-0001", "comma-separated unit serial numbers")
		seed    = flag.Int64("seed", 0, "random seed; 0 uses the current time")
	)
	flag.Parse()

	log := logger.Get(logger.InfoLevel)

	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		dbPath = "app.db"
	}
	db, err := repository.InitDB(dbPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() { _ = db.Close() }()

	repos := repository.NewRepository(db)

	seedVal := *seed
	if seedVal == 0 {
		seedVal = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seedVal))

	ctx := context.Background()
	yesterday := models.DayStart(time.Now()).AddDate(0, 0, -1)

	var inserted, skipped int
	for _, serial := range strings.Split(*serials, ",") {
		serial = strings.TrimSpace(serial)
		if serial == "" {
			continue
		}
		for i := 0; i < *days; i++ {
			day := yesterday.AddDate(0, 0, -i)
			batch := seedDay(rng, serial, day)
			if err := repos.Records.InsertBatch(ctx, batch); err != nil {
				if errors.Is(err, repository.ErrDuplicateRecord) {
					skipped++
					continue
				}
				log.Fatalw("insert failed", "serial", serial, "day", day.Format("2006-01-02"), "err", err)
			}
			inserted += len(batch)
		}
	}

	log.Infow("seeding complete", "records", inserted, "skipped_days", skipped)
}

// seedDay builds one unit-day of records on the 2-hour grid using the legacy
// seasonal-band curve.
func seedDay(rng *rand.Rand, serial string, day time.Time) []models.EnergyRecord {
	records := make([]models.EnergyRecord, 0, models.SlotsPerDay)
	for slot := 0; slot < models.SlotsPerDay; slot++ {
		hour := slot * models.SlotHours
		energy := service.SeedSlotEnergy(rng, hour, day.Month())

		rec := models.EnergyRecord{
			ID:              uuid.NewString(),
			UnitSerial:      serial,
			UnitID:          serial,
			Timestamp:       day.Add(time.Duration(hour) * time.Hour),
			EnergyGenerated: energy,
			Temperature:     25 + rng.Float64()*15,
		}
		if energy > 0 {
			rec.PeakPower = energy * 1.2
			rec.Efficiency = 85 + rng.Float64()*10
		}
		records = append(records, rec)
	}
	return records
}
