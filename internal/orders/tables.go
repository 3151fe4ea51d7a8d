package orders

import "sort"

// Availability is derived from an order list on every read and never
// stored.
type Availability struct {
	Total     int   `json:"total"`
	Booked    []int `json:"booked"`
	Available []int `json:"available"`
}

// ComputeAvailability books every table that has at least one order not
// yet Completed. Booked tables outside 1..n are still reported as booked.
func ComputeAvailability(n int, orders []Order) Availability {
	booked := make(map[int]bool)
	for _, o := range orders {
		if o.Status.Active() {
			booked[o.TableNumber] = true
		}
	}

	a := Availability{Total: n, Booked: []int{}, Available: []int{}}
	for t := range booked {
		a.Booked = append(a.Booked, t)
	}
	sort.Ints(a.Booked)
	for t := 1; t <= n; t++ {
		if !booked[t] {
			a.Available = append(a.Available, t)
		}
	}
	return a
}

// IsBooked reports whether table t has an active order.
func (a Availability) IsBooked(t int) bool {
	i := sort.SearchInts(a.Booked, t)
	return i < len(a.Booked) && a.Booked[i] == t
}
