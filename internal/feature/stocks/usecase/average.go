package usecase

import "context"

// movingAverageWindow は移動平均の対象となる直近レコードの最大件数です。
const movingAverageWindow = 10

// movingAverage は指定銘柄の直近最大10件の価格の算術平均を返します。
// 10件に満たない場合は存在する件数で計算し、1件もない場合は0を返します。
// 注意: 「直近10件」であって「直近10分」ではありません。リフレッシュの
// 間隔が空いたりチェックが集中したりすると、ウィンドウは任意の実時間幅に
// またがります。
func movingAverage(ctx context.Context, repo PriceRepository, symbol string) (float64, error) {
	records, err := repo.MostRecentN(ctx, symbol, movingAverageWindow)
	if err != nil {
		return 0, err
	}

	if len(records) == 0 {
		return 0, nil
	}

	var sum float64
	for _, r := range records {
		sum += r.Price
	}
	return sum / float64(len(records)), nil
}
