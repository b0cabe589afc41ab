package returns

// ResolveReturnable computes per-product quantities for an invoice: what was
// sold, what prior non-rejected returns already consumed, and what remains.
// Validation at write time keeps returned quantities within the sold
// quantities, so no clamping is needed here.
func ResolveReturnable(items []SaleItem, priorReturns []Return) Returnable {
	out := Returnable{
		Original:   make(map[int64]int64, len(items)),
		Returned:   make(map[int64]int64, len(items)),
		Returnable: make(map[int64]int64, len(items)),
	}
	for _, item := range items {
		out.Original[item.ProductID] += item.Quantity
	}
	for _, ret := range priorReturns {
		if !ret.Status.ConsumesQuota() {
			continue
		}
		for _, item := range ret.Items {
			out.Returned[item.ProductID] += item.Quantity
		}
	}
	for productID, original := range out.Original {
		out.Returnable[productID] = original - out.Returned[productID]
	}
	return out
}

// TotalOriginal sums sold units across the invoice.
func (r Returnable) TotalOriginal() int64 {
	var total int64
	for _, qty := range r.Original {
		total += qty
	}
	return total
}

// TotalReturned sums already-returned units across the invoice.
func (r Returnable) TotalReturned() int64 {
	var total int64
	for _, qty := range r.Returned {
		total += qty
	}
	return total
}
