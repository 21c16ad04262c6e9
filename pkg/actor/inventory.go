package actor

import (
	"fmt"
	"sort"
)

// Inventory maps item names to quantities. Entries never hold zero.
type Inventory map[string]int

// Has reports whether at least qty of item is held.
func (inv Inventory) Has(item string, qty int) bool {
	if qty <= 0 {
		qty = 1
	}
	return inv[item] >= qty
}

// Add increases the quantity of item. Non-positive quantities are ignored.
func (inv Inventory) Add(item string, qty int) {
	if item == "" || qty <= 0 {
		return
	}
	inv[item] += qty
}

// Remove takes qty of item, deleting the entry when it reaches zero.
// It fails without mutation if not enough is held.
func (inv Inventory) Remove(item string, qty int) error {
	if qty <= 0 {
		qty = 1
	}
	if !inv.Has(item, qty) {
		return fmt.Errorf("not enough %s: have %d, need %d", item, inv[item], qty)
	}
	inv[item] -= qty
	if inv[item] <= 0 {
		delete(inv, item)
	}
	return nil
}

// Items returns the held item names in sorted order.
func (inv Inventory) Items() []string {
	items := make([]string, 0, len(inv))
	for k := range inv {
		items = append(items, k)
	}
	sort.Strings(items)
	return items
}

// Clone returns a copy of the inventory.
func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for k, v := range inv {
		out[k] = v
	}
	return out
}
