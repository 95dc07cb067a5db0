// Package main imports a JSON export of the legacy KGV database: districts,
// issued file references and entry numbers, and applications with their
// waiting list memberships. After loading it re-aligns every sequence counter
// past the highest imported number and recalculates the production lists, so
// the first reservation after cutover cannot collide with legacy data.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"kgv/internal/core/id"
	coreseq "kgv/internal/core/sequence"
	"kgv/internal/domain/waitinglist"
	"kgv/internal/infrastructure/sequence"
	"kgv/internal/infrastructure/storage/postgres"
	"kgv/internal/infrastructure/storage/postgres/application_repo"
	"kgv/pkg/logger"
)

// legacyExport mirrors the JSON produced by the extraction step of the
// old SQL Server migration (Bezirk, Aktenzeichen, Eingangsnummer, Antrag).
type legacyExport struct {
	Districts      []legacyDistrict    `json:"districts"`
	FileReferences []legacyNumber      `json:"fileReferences"`
	EntryNumbers   []legacyNumber      `json:"entryNumbers"`
	Applications   []legacyApplication `json:"applications"`
}

type legacyDistrict struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	CadastralCode *string `json:"cadastralCode"`
}

type legacyNumber struct {
	DistrictCode string `json:"districtCode"`
	Number       int64  `json:"number"`
	Year         int    `json:"year"`
}

type legacyApplication struct {
	FileReference string     `json:"fileReference"`
	EntryNumber   string     `json:"entryNumber"`
	DistrictCode  string     `json:"districtCode"`
	Salutation    *string    `json:"salutation"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	BirthDate     *time.Time `json:"birthDate"`
	Street        *string    `json:"street"`
	PostalCode    *string    `json:"postalCode"`
	City          *string    `json:"city"`
	Phone         *string    `json:"phone"`
	Email         *string    `json:"email"`

	ApplicationDate  time.Time  `json:"applicationDate"`
	ConfirmationDate *time.Time `json:"confirmationDate"`
	CurrentOfferDate *time.Time `json:"currentOfferDate"`

	Preferences *string `json:"preferences"`
	Remarks     *string `json:"remarks"`

	IsActive      bool       `json:"isActive"`
	DeactivatedAt *time.Time `json:"deactivatedAt"`

	// Legacy columns an_wartelistennr32 / an_wartelistennr33. A non-nil
	// value means the applicant was on that list.
	WaitingListNumber32 *int `json:"waitingListNumber32"`
	WaitingListNumber33 *int `json:"waitingListNumber33"`
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	exportPath := os.Getenv("LEGACY_EXPORT")
	if exportPath == "" && len(os.Args) > 1 {
		exportPath = os.Args[1]
	}
	if exportPath == "" {
		log.Fatal("usage: migrate <export.json> (or set LEGACY_EXPORT)")
	}

	export, err := loadExport(exportPath)
	if err != nil {
		log.Fatalw("failed to load legacy export", "path", exportPath, "error", err)
	}

	log.Infow("legacy export loaded",
		"districts", len(export.Districts),
		"file_references", len(export.FileReferences),
		"entry_numbers", len(export.EntryNumbers),
		"applications", len(export.Applications),
	)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	inserter := postgres.NewBatchInserter(txManager)

	importer := &importer{
		export:    export,
		txManager: txManager,
		inserter:  inserter,
		log:       log,
	}

	// Everything lands in one transaction: a half-imported office database
	// is worse than no import at all.
	if err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return importer.run(ctx)
	}); err != nil {
		log.Fatalw("import failed", "error", err)
	}

	// Counter alignment runs after the commit. The issuer advances counters
	// outside transactions by contract, and a counter set past the imported
	// maximum can only waste numbers, never reissue one.
	issuer := sequence.New(pool.Pool)
	if err := alignCounters(ctx, issuer, importer.maxPerScope); err != nil {
		log.Fatalw("failed to align sequence counters", "error", err)
	}

	waitingListRepo := application_repo.NewWaitingListRepo(txManager)
	ranker := waitinglist.NewRanker(waitingListRepo, txManager, nil)
	for _, listName := range []string{waitinglist.ListDistrict32, waitinglist.ListDistrict33} {
		updated, err := ranker.RecalculateAll(ctx, listName)
		if err != nil {
			log.Fatalw("failed to recalculate waiting list", "list_name", listName, "error", err)
		}
		log.Infow("waiting list recalculated", "list_name", listName, "updated", updated)
	}

	log.Info("legacy import completed successfully")
}

func loadExport(path string) (*legacyExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	var export legacyExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	return &export, nil
}

// importer carries state across the import phases.
type importer struct {
	export    *legacyExport
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
	log       *logger.Logger

	// maxPerScope tracks the highest imported number per counter scope.
	maxPerScope map[coreseq.Scope]int64
}

func (im *importer) run(ctx context.Context) error {
	im.maxPerScope = make(map[coreseq.Scope]int64)

	if err := im.importDistricts(ctx); err != nil {
		return err
	}
	if err := im.importRecords(ctx, coreseq.CategoryFileReference, im.export.FileReferences); err != nil {
		return err
	}
	if err := im.importRecords(ctx, coreseq.CategoryEntryNumber, im.export.EntryNumbers); err != nil {
		return err
	}
	if err := im.importApplications(ctx); err != nil {
		return err
	}
	return nil
}

func (im *importer) importDistricts(ctx context.Context) error {
	q := im.txManager.GetQuerier(ctx)
	now := time.Now().UTC()

	for _, d := range im.export.Districts {
		_, err := q.Exec(ctx, `
			INSERT INTO districts (id, version, code, name, cadastral_code, is_active, created_at, updated_at)
			VALUES (gen_random_uuid(), 1, $1, $2, $3, true, $4, $4)
			ON CONFLICT (code) DO NOTHING
		`, d.Code, d.Name, d.CadastralCode, now)
		if err != nil {
			return fmt.Errorf("insert district %s: %w", d.Code, err)
		}
	}

	im.log.Infow("districts imported", "count", len(im.export.Districts))
	return nil
}

func (im *importer) importRecords(ctx context.Context, category coreseq.Category, numbers []legacyNumber) error {
	if len(numbers) == 0 {
		return nil
	}

	columns := []string{"id", "category", "district_code", "year", "number", "issued_at"}
	rows := make([][]any, 0, len(numbers))
	now := time.Now().UTC()

	for _, n := range numbers {
		scope := coreseq.Scope{Category: category, DistrictCode: n.DistrictCode, Year: n.Year}
		if err := scope.Validate(); err != nil {
			return fmt.Errorf("record %s %s-%d/%d: %w", category, n.DistrictCode, n.Number, n.Year, err)
		}
		if n.Number > im.maxPerScope[scope] {
			im.maxPerScope[scope] = n.Number
		}
		rows = append(rows, []any{id.New(), string(category), n.DistrictCode, n.Year, n.Number, now})
	}

	inserted, err := im.inserter.CopyFromSlice(ctx, "issued_records", columns, rows)
	if err != nil {
		return fmt.Errorf("copy %s records: %w", category, err)
	}

	im.log.Infow("issued records imported", "category", category, "count", inserted)
	return nil
}

func (im *importer) importApplications(ctx context.Context) error {
	if len(im.export.Applications) == 0 {
		return nil
	}

	appColumns := []string{
		"id", "version", "file_reference", "entry_number", "district_code",
		"salutation", "first_name", "last_name", "birth_date",
		"street", "postal_code", "city", "phone", "email",
		"application_date", "confirmation_date", "current_offer_date",
		"preferences", "remarks", "is_active", "deactivated_at",
		"created_at", "updated_at",
	}
	entryColumns := []string{
		"id", "application_id", "list_name", "reference_date",
		"is_active", "position", "created_at", "removed_at",
	}

	now := time.Now().UTC()
	appRows := make([][]any, 0, len(im.export.Applications))
	var entryRows [][]any

	for _, a := range im.export.Applications {
		appID := id.New()
		appRows = append(appRows, []any{
			appID, 1, a.FileReference, a.EntryNumber, a.DistrictCode,
			a.Salutation, a.FirstName, a.LastName, a.BirthDate,
			a.Street, a.PostalCode, a.City, a.Phone, a.Email,
			a.ApplicationDate, a.ConfirmationDate, a.CurrentOfferDate,
			a.Preferences, a.Remarks, a.IsActive, a.DeactivatedAt,
			now, now,
		})

		// Legacy list memberships come in unranked; the stored numbers are
		// decades of accumulated drift. Positions are left NULL and rebuilt
		// from scratch by the recalculation after the import.
		if a.WaitingListNumber32 != nil {
			entryRows = append(entryRows, membershipRow(appID, waitinglist.ListDistrict32, &a, now))
		}
		if a.WaitingListNumber33 != nil {
			entryRows = append(entryRows, membershipRow(appID, waitinglist.ListDistrict33, &a, now))
		}
	}

	inserted, err := im.inserter.CopyFromSlice(ctx, "applications", appColumns, appRows)
	if err != nil {
		return fmt.Errorf("copy applications: %w", err)
	}
	im.log.Infow("applications imported", "count", inserted)

	if len(entryRows) > 0 {
		inserted, err = im.inserter.CopyFromSlice(ctx, "waiting_list_entries", entryColumns, entryRows)
		if err != nil {
			return fmt.Errorf("copy waiting list entries: %w", err)
		}
		im.log.Infow("waiting list memberships imported", "count", inserted)
	}

	return nil
}

func membershipRow(appID id.ID, listName string, a *legacyApplication, now time.Time) []any {
	active := a.IsActive
	var removedAt *time.Time
	if !active {
		removedAt = a.DeactivatedAt
		if removedAt == nil {
			removedAt = &now
		}
	}
	return []any{id.New(), appID, listName, a.ApplicationDate, active, nil, now, removedAt}
}

// alignCounters resets every touched counter so the next reservation lands
// one past the highest imported number.
func alignCounters(ctx context.Context, issuer coreseq.Issuer, maxPerScope map[coreseq.Scope]int64) error {
	for scope, highest := range maxPerScope {
		if err := issuer.Reset(ctx, scope, highest+1); err != nil {
			return fmt.Errorf("reset counter %s/%s/%d: %w", scope.Category, scope.DistrictCode, scope.Year, err)
		}
	}
	return nil
}
