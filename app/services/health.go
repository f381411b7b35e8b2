package services

import (
	"context"

	"teamboard/app/backend"
	"teamboard/app/models"
	"teamboard/app/repositories"
)

// CheckConnection probes the backend with a one-row read of the member
// table.
func CheckConnection(ctx context.Context, t backend.Tables) (err error) {
	defer recoverTo("check connection", &err)

	table := repositories.TableName[models.Member]()
	if _, err := t.Select(ctx, table, backend.Query{Limit: 1}); err != nil {
		return fail("check connection", err)
	}
	return nil
}
