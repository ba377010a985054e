package pricemcp

// PriceRange 价格区间，Min <= Max
type PriceRange struct {
	Min float64
	Max float64
}

// Reduce 计算序列的最小值与最大值，空序列返回 ErrEmptySeries
func Reduce(series PriceSeries) (PriceRange, error) {
	if len(series) == 0 {
		return PriceRange{}, ErrEmptySeries
	}

	first := true
	var r PriceRange
	for _, price := range series {
		if first {
			r = PriceRange{Min: price, Max: price}
			first = false
			continue
		}
		if price < r.Min {
			r.Min = price
		}
		if price > r.Max {
			r.Max = price
		}
	}
	return r, nil
}
