package journal

import (
	"context"
	"fmt"

	"github.com/partida-dev/partida/internal/model"
	"github.com/partida-dev/partida/internal/store"
)

// NextNumber returns the number the next entry of tenant receives: one past
// the highest number the tenant ever used, or 1 for a tenant without
// entries. It must run in the same transaction as the insert that consumes
// the number.
func NextNumber(ctx context.Context, tx store.Tx, tenant model.TenantID) (int64, error) {
	last, err := tx.LastEntryNumber(ctx, tenant)
	if err != nil {
		return 0, fmt.Errorf("reading entry sequence: %w", err)
	}
	return last + 1, nil
}
