package reward

type OrderLine struct {
	Price int64
	Count int64
}

func (l OrderLine) Subtotal() int64 {
	return l.Price * l.Count
}

// OrderTotal is the point cost of an order.
func OrderTotal(lines []OrderLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}
