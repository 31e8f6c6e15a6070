package ratecard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Quote はレート照会の結果を表します。金額はすべて小数点以下 2 桁の固定小数です。
type Quote struct {
	RateCardID    string
	WorkType      WorkType
	ClientRate    decimal.Decimal
	WorkerRate    decimal.Decimal
	Margin        decimal.Decimal
	MarginPercent decimal.Decimal
}

// ResolveRate はレート表の集合から指定条件に適用される 1 枚を選び、区分別レートを取り出します。
// 選択規則: 職種一致かつ有効フラグが立ち、有効期間が asOf を含むものの中から
// effective_date が最も新しいもの。同日付の場合は ID の辞書順で大きいものが勝ちます。
// 適用可能なレート表が無い場合は ErrNoApplicableRateCard を返します。
func ResolveRate(cards []*RateCard, jobRoleID string, wt WorkType, asOf time.Time) (*Quote, error) {
	if !IsValidWorkType(wt) {
		return nil, ErrInvalidWorkType
	}

	applicable := make([]*RateCard, 0, len(cards))
	for _, card := range cards {
		if card == nil || !card.Active {
			continue
		}
		if card.JobRoleID != jobRoleID {
			continue
		}
		if !card.CoversDate(asOf) {
			continue
		}
		applicable = append(applicable, card)
	}

	if len(applicable) == 0 {
		return nil, ErrNoApplicableRateCard
	}

	sort.Slice(applicable, func(i, j int) bool {
		di, dj := dateOnly(applicable[i].EffectiveDate), dateOnly(applicable[j].EffectiveDate)
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return applicable[i].ID > applicable[j].ID
	})

	selected := applicable[0]
	clientRate := selected.ClientRates.For(wt)
	workerRate := selected.WorkerRates.For(wt)
	margin := clientRate.Sub(workerRate)

	marginPercent := decimal.Zero
	if !clientRate.IsZero() {
		marginPercent = margin.Div(clientRate).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return &Quote{
		RateCardID:    selected.ID,
		WorkType:      wt,
		ClientRate:    clientRate,
		WorkerRate:    workerRate,
		Margin:        margin,
		MarginPercent: marginPercent,
	}, nil
}
