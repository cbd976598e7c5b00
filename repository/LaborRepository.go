package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"backend/models"

	"golang.org/x/sync/errgroup"
)

const maxFetchAttempts = 3

// withRetry re-runs a fetch up to three times with a growing pause between
// attempts. Context cancellation stops the retry loop immediately; a request
// superseded by a newer one must not keep hammering the database.
func withRetry(ctx context.Context, name string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < maxFetchAttempts {
			log.Printf("fetch %s failed (attempt %d/%d): %v", name, attempt, maxFetchAttempts, err)
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("fetch %s failed after %d attempts: %w", name, maxFetchAttempts, err)
}

// LaborDataset is everything the forecasting and dashboard endpoints need for
// one project, fetched in a single round.
type LaborDataset struct {
	Actuals     []models.LaborActual
	Forecasts   []models.HeadcountForecast
	CraftTypes  map[int]models.CraftType
	LaborBudget float64
	HoursBudget float64
}

// FetchLaborDataset loads actuals, forecasts, craft types and budget totals
// for a project in parallel. Any single failure cancels the rest.
func FetchLaborDataset(ctx context.Context, db *sql.DB, projectID int) (*LaborDataset, error) {
	ds := &LaborDataset{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return withRetry(ctx, "labor actuals", func() error {
			var err error
			ds.Actuals, err = FetchLaborActuals(ctx, db, projectID)
			return err
		})
	})
	g.Go(func() error {
		return withRetry(ctx, "headcount forecasts", func() error {
			var err error
			ds.Forecasts, err = FetchHeadcountForecasts(ctx, db, projectID)
			return err
		})
	})
	g.Go(func() error {
		return withRetry(ctx, "craft types", func() error {
			var err error
			ds.CraftTypes, err = FetchCraftTypes(ctx, db)
			return err
		})
	})
	g.Go(func() error {
		return withRetry(ctx, "labor budget", func() error {
			var err error
			ds.LaborBudget, ds.HoursBudget, err = FetchLaborBudget(ctx, db, projectID)
			return err
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

func FetchLaborActuals(ctx context.Context, db *sql.DB, projectID int) ([]models.LaborActual, error) {
	query := `SELECT id, project_id, week_ending, craft_type_id, labor_category,
	                 actual_hours, actual_cost, actual_cost_with_burden, burden_amount, COALESCE(description, '')
	          FROM labor_actuals
	          WHERE project_id = $1
	          ORDER BY week_ending, id`

	rows, err := db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LaborActual
	for rows.Next() {
		var rec models.LaborActual
		var craftID sql.NullInt64
		var category sql.NullString
		var burdened, burden sql.NullFloat64

		err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.WeekEnding, &craftID, &category,
			&rec.ActualHours, &rec.ActualCost, &burdened, &burden, &rec.Description)
		if err != nil {
			return nil, err
		}
		if craftID.Valid {
			id := int(craftID.Int64)
			rec.CraftTypeID = &id
		}
		if category.Valid {
			cat := category.String
			rec.LaborCategory = &cat
		}
		if burdened.Valid {
			v := burdened.Float64
			rec.ActualCostWithBurden = &v
		}
		if burden.Valid {
			v := burden.Float64
			rec.BurdenAmount = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func FetchHeadcountForecasts(ctx context.Context, db *sql.DB, projectID int) ([]models.HeadcountForecast, error) {
	query := `SELECT id, project_id, week_starting, craft_type_id, labor_category,
	                 headcount, COALESCE(avg_weekly_hours, 0)
	          FROM headcount_forecasts
	          WHERE project_id = $1
	          ORDER BY week_starting, id`

	rows, err := db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HeadcountForecast
	for rows.Next() {
		var rec models.HeadcountForecast
		var craftID sql.NullInt64
		var category sql.NullString

		err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.WeekStarting, &craftID, &category,
			&rec.Headcount, &rec.AvgWeeklyHours)
		if err != nil {
			return nil, err
		}
		if craftID.Valid {
			id := int(craftID.Int64)
			rec.CraftTypeID = &id
		}
		if category.Valid {
			cat := category.String
			rec.LaborCategory = &cat
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func FetchCraftTypes(ctx context.Context, db *sql.DB) (map[int]models.CraftType, error) {
	query := `SELECT id, code, name, category, default_rate, billing_rate, is_active
	          FROM craft_types
	          ORDER BY id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]models.CraftType)
	for rows.Next() {
		var craft models.CraftType
		var billing sql.NullFloat64

		err := rows.Scan(&craft.ID, &craft.Code, &craft.Name, &craft.Category,
			&craft.DefaultRate, &billing, &craft.IsActive)
		if err != nil {
			return nil, err
		}
		if billing.Valid {
			v := billing.Float64
			craft.BillingRate = &v
		}
		out[craft.ID] = craft
	}
	return out, rows.Err()
}

// FetchLaborBudget sums the labor buckets of the project's current budget
// line items. Falls back to the project-level labor budget columns when no
// import has been committed yet.
func FetchLaborBudget(ctx context.Context, db *sql.DB, projectID int) (cost float64, hours float64, err error) {
	query := `SELECT COALESCE(SUM(labor_direct + labor_indirect + labor_staff), 0),
	                 COALESCE(SUM(manhours), 0)
	          FROM budget_line_items
	          WHERE project_id = $1 AND category = 'LABOR'`

	if err = db.QueryRowContext(ctx, query, projectID).Scan(&cost, &hours); err != nil {
		return 0, 0, err
	}
	if cost > 0 {
		return cost, hours, nil
	}

	fallback := `SELECT COALESCE(labor_budget, 0), COALESCE(manhours_budget, 0) FROM project WHERE project_id = $1`
	if err = db.QueryRowContext(ctx, fallback, projectID).Scan(&cost, &hours); err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, fmt.Errorf("project %d not found", projectID)
		}
		return 0, 0, err
	}
	return cost, hours, nil
}

// FetchCraftBudgets maps craft type id to budgeted cost for the craft
// breakdown. Only line items tagged with a craft participate.
func FetchCraftBudgets(ctx context.Context, db *sql.DB, projectID int) (map[int]float64, error) {
	query := `SELECT craft_type_id, COALESCE(SUM(total_cost), 0)
	          FROM craft_budgets
	          WHERE project_id = $1
	          GROUP BY craft_type_id`

	rows, err := db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]float64)
	for rows.Next() {
		var id int
		var cost float64
		if err := rows.Scan(&id, &cost); err != nil {
			return nil, err
		}
		out[id] = cost
	}
	return out, rows.Err()
}
