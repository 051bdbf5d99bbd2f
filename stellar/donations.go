package stellar

import (
	"github.com/fundlift/custody/internal/common"
	"github.com/fundlift/custody/internal/model"
)

// Donations returns the inbound donations the watcher has recorded for
// the central account, oldest first, with a native-asset total. Sums run
// on stroops so long donation lists lose no precision.
func (s *Service) Donations(limit int) (*model.DonationsResponse, error) {
	payments, err := s.store.Payments(limit)
	if err != nil {
		return nil, err
	}

	var totalStroops int64
	largest := ""
	for _, p := range payments {
		if p.AssetType != "native" {
			continue
		}
		stroops, err := common.LumensToStroops(p.Amount)
		if err != nil {
			s.log.Warn().Str("paging_token", p.PagingToken).Str("amount", p.Amount).
				Msg("skipping donation with unparseable amount")
			continue
		}
		totalStroops += stroops
		if largest == "" {
			largest = p.Amount
		} else if cmp, err := common.CompareAmounts(p.Amount, largest); err == nil && cmp > 0 {
			largest = p.Amount
		}
	}

	return &model.DonationsResponse{
		Payments: payments,
		Count:    len(payments),
		Total:    common.StroopsToLumens(totalStroops),
		Largest:  largest,
	}, nil
}
