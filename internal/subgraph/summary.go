package subgraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"libraStats/internal/fixed"
	"libraStats/internal/model"
)

const aprSummaryQuery = `
query Summary($ids: [String!]!, $dvIds: [String!]!) {
  swaps(
    where: {
      address_in: $ids
    }
  ) {
    address
    adminFee
    swapFee
  }
  dailyVolumes(
    where: {
      id_in: $dvIds
    }
  ) {
    id
    volume
  }
}
`

// Swap holds pool fee parameters, both fixed-point over 1e10.
type Swap struct {
	Address  string `json:"address"`
	AdminFee string `json:"adminFee"`
	SwapFee  string `json:"swapFee"`
}

// DailyVolume is the traded volume of one pool on one UTC day. ID has the
// form <pool>-day-<unix day start>.
type DailyVolume struct {
	ID     string `json:"id"`
	Volume string `json:"volume"`
}

// Summary is the result of the APR summary query.
type Summary struct {
	Swaps        []Swap        `json:"swaps"`
	DailyVolumes []DailyVolume `json:"dailyVolumes"`
}

// PoolFees are one pool's inputs to the APR formula. Missing records are zero.
type PoolFees struct {
	Volume   decimal.Decimal
	SwapFee  decimal.Decimal
	AdminFee decimal.Decimal
}

// DayID builds the daily volume entity id for pool at dayStart.
func DayID(pool string, dayStart int64) string {
	return fmt.Sprintf("%s-day-%d", strings.ToLower(pool), dayStart)
}

// APRSummary fetches fee parameters for pools and their volume on dayStart.
func (c *Client) APRSummary(ctx context.Context, pools []string, dayStart int64) (Summary, error) {
	ids := make([]string, 0, len(pools))
	dvIDs := make([]string, 0, len(pools))
	for _, pool := range pools {
		ids = append(ids, strings.ToLower(pool))
		dvIDs = append(dvIDs, DayID(pool, dayStart))
	}

	var summary Summary
	err := c.Query(ctx, aprSummaryQuery, map[string]any{
		"ids":   ids,
		"dvIds": dvIDs,
	}, &summary)
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// Fees extracts the APR inputs of pool for dayStart.
func (s Summary) Fees(pool string, dayStart int64) (PoolFees, error) {
	fees := PoolFees{Volume: decimal.Zero, SwapFee: decimal.Zero, AdminFee: decimal.Zero}

	id := DayID(pool, dayStart)
	for _, dv := range s.DailyVolumes {
		if dv.ID != id {
			continue
		}
		volume, err := fixed.Parse(dv.Volume)
		if err != nil {
			return PoolFees{}, fmt.Errorf("volume %s: %w", id, err)
		}
		fees.Volume = volume
		break
	}

	addr := strings.ToLower(pool)
	for _, swap := range s.Swaps {
		if !model.SameAddress(swap.Address, addr) {
			continue
		}
		swapFee, err := fixed.Parse(swap.SwapFee)
		if err != nil {
			return PoolFees{}, fmt.Errorf("swap fee %s: %w", addr, err)
		}
		adminFee, err := fixed.Parse(swap.AdminFee)
		if err != nil {
			return PoolFees{}, fmt.Errorf("admin fee %s: %w", addr, err)
		}
		fees.SwapFee = swapFee
		fees.AdminFee = adminFee
		break
	}

	return fees, nil
}
