package usecase

import (
	"context"
	"sort"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

// RecordsQuery loads the records view of the signed-in identity.
type RecordsQuery struct {
	identity ports.IdentityProvider
	backend  ports.ComplaintBackend
}

func NewRecordsQuery(identity ports.IdentityProvider, backend ports.ComplaintBackend) *RecordsQuery {
	return &RecordsQuery{identity: identity, backend: backend}
}

// Load returns the account with previous complaints newest first. An
// unsigned session yields an empty record and no error.
func (q *RecordsQuery) Load(ctx context.Context) (domain.AccountRecord, error) {
	identity, ok := q.identity.Current(ctx)
	if !ok {
		return domain.AccountRecord{}, nil
	}
	record, err := q.backend.LookupAccount(ctx, identity.ID)
	if err != nil {
		return domain.AccountRecord{}, err
	}
	sort.SliceStable(record.PreviousComplaints, func(i, j int) bool {
		return record.PreviousComplaints[i].Date.After(record.PreviousComplaints[j].Date)
	})
	return record, nil
}
